package services

import (
	"context"
	"time"

	"github.com/stackpress/reactus/internal/artifact"
	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/manifest"
)

// BuildService runs the batch build: every registered entry is compiled to
// its client, page, and asset artifacts and the id record is persisted.
type BuildService struct {
	config *config.Config
	env    *document.Env
	log    logging.Logger
}

// NewBuildService creates a build service over an assembled environment.
func NewBuildService(cfg *config.Config, env *document.Env, log logging.Logger) *BuildService {
	if log == nil {
		log = logging.NopLogger{}
	}

	return &BuildService{
		config: cfg,
		env:    env,
		log:    log.WithComponent("build"),
	}
}

// BuildOptions contains options for the batch build.
type BuildOptions struct {
	// Entries to register, in any spelling the resolver accepts.
	Entries []string
}

// BuildResult contains the outcome of a batch build.
type BuildResult struct {
	Duration     time.Duration
	Statuses     []manifest.BuildStatus
	ManifestPath string
	Built        int
	Failed       int
}

// Build registers the requested entries, builds them all, and saves the
// manifest record. A per-entry build failure is recorded in the result, not
// returned: only registration and persistence errors abort the batch.
func (s *BuildService) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	start := time.Now()

	m := manifest.New(s.env)
	for _, entry := range opts.Entries {
		if _, err := m.GetOrCreate(entry); err != nil {
			return nil, err
		}
	}

	defer func() {
		_ = s.env.Bundler.Close()
	}()

	writer := artifact.NewWriter(
		s.env.Fs,
		s.config.Paths.ClientDir,
		s.config.Paths.PageDir,
		s.config.Paths.AssetDir,
	)

	result := &BuildResult{
		Statuses:     m.BuildAll(ctx, writer),
		ManifestPath: s.config.Paths.Manifest,
	}

	for _, status := range result.Statuses {
		if status.Err != nil {
			result.Failed++
			s.log.Error(ctx, status.Err, "entry build failed", "entry", status.Entry, "id", status.ID)

			continue
		}

		result.Built++
		s.log.Info(ctx, "entry built", "entry", status.Entry, "id", status.ID, "artifacts", len(status.Statuses))
	}

	if err := m.Save(s.config.Paths.Manifest); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	s.log.Info(ctx, "build finished",
		"built", result.Built, "failed", result.Failed, "duration", result.Duration.String())

	return result, nil
}

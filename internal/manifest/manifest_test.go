package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpress/reactus/internal/artifact"
	"github.com/stackpress/reactus/internal/bundler"
	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/errors"
	"github.com/stackpress/reactus/internal/hashid"
	"github.com/stackpress/reactus/internal/resolver"
	"github.com/stackpress/reactus/internal/synth"
	"github.com/stackpress/reactus/internal/vmod"
)

// scriptedBundler fails builds for entries listed in failFor.
type scriptedBundler struct {
	failFor map[string]bool
}

func (s *scriptedBundler) Transform(ctx context.Context, url string) (*bundler.TransformResult, error) {
	return &bundler.TransformResult{Code: "ok"}, nil
}

func (s *scriptedBundler) Build(ctx context.Context, opts bundler.BuildOptions) (*bundler.BuildOutput, error) {
	if s.failFor[opts.Input] {
		return nil, fmt.Errorf("scripted failure for %s", opts.Input)
	}

	return &bundler.BuildOutput{Output: []bundler.Output{
		{Kind: bundler.KindChunk, FileName: "entry.js", Code: "built " + opts.Input, IsEntry: true},
		{Kind: bundler.KindAsset, FileName: "assets/page.css", Source: []byte("css")},
	}}, nil
}

func (s *scriptedBundler) Middlewares() http.Handler { return nil }

func newTestEnv(mode config.Mode) *document.Env {
	cfg := &config.Config{Mode: mode, Cwd: "/proj"}
	config.ApplyDefaults(cfg)

	res := resolver.New("/proj")

	return &document.Env{
		Config:   cfg,
		Resolver: res,
		Synth:    synth.New(res, synth.Templates{}),
		Store:    vmod.NewStore(),
		Bundler: bundler.NewLazy(func(ctx context.Context) (bundler.DevResource, error) {
			return &scriptedBundler{}, nil
		}),
		Fs: afero.NewMemMapFs(),
	}
}

func TestManifest_GetOrCreate_Dedup(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	first, err := m.GetOrCreate("@/pages/home.tsx")
	require.NoError(t, err)

	second, err := m.GetOrCreate("@/pages/home.tsx")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Size())
}

func TestManifest_GetOrCreate_EquivalentSpellings(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	canonical, err := m.GetOrCreate("@/pages/home.tsx")
	require.NoError(t, err)

	for _, raw := range []string{
		"/proj/pages/home.tsx",
		"file:///proj/pages/home.tsx",
		"./pages/home.tsx",
	} {
		doc, err := m.GetOrCreate(raw)
		require.NoError(t, err, raw)
		assert.Same(t, canonical, doc, raw)
	}

	assert.Equal(t, 1, m.Size())
}

func TestManifest_GetOrCreate_InvalidEntry(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	_, err := m.GetOrCreate("/etc/passwd")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidEntry(err))
	assert.Equal(t, 0, m.Size(), "a failed canonicalization must not register anything")
}

func TestManifest_GetOrCreate_ConcurrentEquivalentInputs(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	spellings := []string{
		"@/pages/home.tsx",
		"/proj/pages/home.tsx",
		"./pages/home.tsx",
		"file:///proj/pages/home.tsx",
	}

	const iterations = 50
	docs := make([]*document.Document, len(spellings)*iterations)

	var wg sync.WaitGroup
	for i := 0; i < len(docs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := m.GetOrCreate(spellings[i%len(spellings)])
			assert.NoError(t, err)
			docs[i] = doc
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, m.Size())
	for _, doc := range docs {
		assert.Same(t, docs[0], doc)
	}
}

func TestManifest_Find(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	doc, err := m.GetOrCreate("@/pages/home.tsx")
	require.NoError(t, err)

	assert.Same(t, doc, m.Find(doc.ID()))
	assert.Nil(t, m.Find("unknown1"))
}

func TestManifest_InsertionOrder(t *testing.T) {
	m := New(newTestEnv(config.ModeDevelopment))

	for _, entry := range []string{"@/pages/c.tsx", "@/pages/a.tsx", "@/pages/b.tsx"} {
		_, err := m.GetOrCreate(entry)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"@/pages/c.tsx", "@/pages/a.tsx", "@/pages/b.tsx"}, m.Entries())
}

func TestManifest_SaveLoadRoundTrip(t *testing.T) {
	env := newTestEnv(config.ModeBuild)
	m := New(env)

	entries := []string{"@/pages/home.tsx", "@/pages/about.tsx", "react-feather/Home"}
	ids := make(map[string]string)
	for _, entry := range entries {
		doc, err := m.GetOrCreate(entry)
		require.NoError(t, err)
		ids[entry] = doc.ID()
	}

	require.NoError(t, m.Save("/proj/.reactus/manifest.json"))

	// A fresh manifest over the same file system reconstructs identical ids.
	restored := New(env)
	require.NoError(t, restored.Load("/proj/.reactus/manifest.json"))

	assert.Equal(t, m.Size(), restored.Size())
	for _, entry := range entries {
		doc, exists := restored.Get(entry)
		require.True(t, exists, entry)
		assert.Equal(t, ids[entry], doc.ID())
		assert.Same(t, doc, restored.Find(ids[entry]))
	}
}

func TestManifest_SaveFormat(t *testing.T) {
	env := newTestEnv(config.ModeBuild)
	m := New(env)

	doc, err := m.GetOrCreate("@/pages/home.tsx")
	require.NoError(t, err)

	require.NoError(t, m.Save("/proj/.reactus/manifest.json"))

	data, err := afero.ReadFile(env.Fs, "/proj/.reactus/manifest.json")
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, map[string]string{doc.ID(): "@/pages/home.tsx"}, record)
}

func TestManifest_LoadFromHandWrittenRecord(t *testing.T) {
	env := newTestEnv(config.ModeProduction)

	id := hashid.Hash("@/pages/home.tsx", hashid.DefaultLength)
	payload := fmt.Sprintf("{%q: %q}", id, "@/pages/home.tsx")
	require.NoError(t, afero.WriteFile(env.Fs, "/proj/.reactus/manifest.json", []byte(payload), 0o644))

	m := New(env)
	require.NoError(t, m.Load("/proj/.reactus/manifest.json"))

	doc := m.Find(id)
	require.NotNil(t, doc)
	assert.Equal(t, "@/pages/home.tsx", doc.Entry())
}

func TestManifest_LoadRejectsMismatchedID(t *testing.T) {
	env := newTestEnv(config.ModeProduction)

	require.NoError(t, afero.WriteFile(env.Fs, "/proj/.reactus/manifest.json",
		[]byte(`{"wrongid1": "@/pages/home.tsx"}`), 0o644))

	m := New(env)
	err := m.Load("/proj/.reactus/manifest.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANIFEST_ID_MISMATCH")
}

func TestManifest_LoadMissingFile(t *testing.T) {
	m := New(newTestEnv(config.ModeProduction))

	err := m.Load("/proj/.reactus/manifest.json")
	require.Error(t, err)
	assert.True(t, errors.IsArtifactMissing(err))
}

func TestManifest_BuildAll(t *testing.T) {
	env := newTestEnv(config.ModeBuild)
	m := New(env)

	for _, entry := range []string{"@/pages/home.tsx", "@/pages/about.tsx"} {
		_, err := m.GetOrCreate(entry)
		require.NoError(t, err)
	}

	writer := artifact.NewWriter(env.Fs, env.Config.Paths.ClientDir, env.Config.Paths.PageDir, env.Config.Paths.AssetDir)
	statuses := m.BuildAll(context.Background(), writer)

	require.Len(t, statuses, 2)
	for _, status := range statuses {
		assert.NoError(t, status.Err)
		assert.NotEmpty(t, status.Statuses)

		exists, err := afero.Exists(env.Fs, env.Config.Paths.PageDir+"/"+status.ID+".js")
		require.NoError(t, err)
		assert.True(t, exists, "page artifact for %s", status.Entry)

		exists, err = afero.Exists(env.Fs, env.Config.Paths.ClientDir+"/"+status.ID+".js")
		require.NoError(t, err)
		assert.True(t, exists, "client artifact for %s", status.Entry)
	}
}

func TestManifest_BuildAll_FailureDoesNotAbortBatch(t *testing.T) {
	env := newTestEnv(config.ModeBuild)

	failing := &scriptedBundler{failFor: map[string]bool{
		"virtual:/proj/pages/bad.page.tsx": true,
	}}
	env.Bundler = bundler.NewLazy(func(ctx context.Context) (bundler.DevResource, error) {
		return failing, nil
	})

	m := New(env)
	_, err := m.GetOrCreate("@/pages/bad.tsx")
	require.NoError(t, err)
	_, err = m.GetOrCreate("@/pages/good.tsx")
	require.NoError(t, err)

	writer := artifact.NewWriter(env.Fs, env.Config.Paths.ClientDir, env.Config.Paths.PageDir, env.Config.Paths.AssetDir)
	statuses := m.BuildAll(context.Background(), writer)

	require.Len(t, statuses, 2)
	assert.Error(t, statuses[0].Err)
	assert.NoError(t, statuses[1].Err)
}

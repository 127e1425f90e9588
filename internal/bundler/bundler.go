// Package bundler declares the capabilities the orchestrator consumes from
// an external bundler/dev-server and the output shapes those capabilities
// produce. The bundler itself is out of scope: implementations live in the
// embedding application.
package bundler

import (
	"context"
	"net/http"
)

// OutputKind classifies one item of build output.
type OutputKind string

const (
	// KindChunk is compiled module code.
	KindChunk OutputKind = "chunk"
	// KindAsset is a non-module file emitted by the build (stylesheets,
	// images, fonts).
	KindAsset OutputKind = "asset"
)

// Output is one chunk or asset produced by a static build.
type Output struct {
	Kind     OutputKind
	FileName string
	// Code carries chunk text; empty for assets.
	Code string
	// Source carries raw asset bytes; nil for chunks.
	Source []byte
	// IsEntry marks the chunk compiled from the build input itself.
	IsEntry bool
}

// TransformResult is the product of a live single-module compile.
type TransformResult struct {
	Code string
	// Deps lists module specifiers the transform discovered, when the
	// backend reports them.
	Deps []string
}

// BuildOptions parameterizes a static build request.
type BuildOptions struct {
	// Input is the real or pseudo path handed to the bundler as entry.
	Input string
	// Write controls whether the bundler persists output itself. The
	// orchestrator always passes false and writes artifacts through its own
	// writer.
	Write bool
	// Externals lists module specifiers excluded from the bundle.
	Externals []string
	// Format names the output module format (e.g. "es").
	Format string
}

// BuildOutput is the product of a static build.
type BuildOutput struct {
	Output []Output
}

// Transformer is the live single-module compile capability. A nil result
// with a nil error means the module could not be located.
type Transformer interface {
	Transform(ctx context.Context, url string) (*TransformResult, error)
}

// Builder is the static bundling capability.
type Builder interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildOutput, error)
}

// MiddlewareProvider exposes the dev server's HTTP middleware chain for
// static-asset and live-module serving.
type MiddlewareProvider interface {
	Middlewares() http.Handler
}

// DevResource is the full development-mode capability set.
type DevResource interface {
	Transformer
	Builder
	MiddlewareProvider
}

// BuildResource is the capability set needed by static builds.
type BuildResource interface {
	Builder
}

// Package artifact persists bundler build output to the canonical artifact
// layout: one directory each for client bundles, page modules, and built
// assets, the first two keyed by document id, assets by their original file
// name.
package artifact

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/stackpress/reactus/internal/bundler"
)

// AssetPrefix is the directory prefix a bundler asset must carry to be
// accepted; anything outside it is rejected rather than written.
const AssetPrefix = "assets/"

// Status codes mirror the HTTP-ish convention of the build report: 200 for a
// written artifact, 404 for a missing or rejected one, 500 when the bundler
// produced no usable output at all.
const (
	StatusOK       = 200
	StatusNotFound = 404
	StatusFailed   = 500
)

// Target selects the destination directory for chunk output.
type Target string

const (
	// TargetClient writes the entry chunk to the client bundle directory.
	TargetClient Target = "client"
	// TargetPage writes the entry chunk to the page module directory.
	TargetPage Target = "page"
)

// Status is one per-output decision of a write batch.
type Status struct {
	Code int
	// Kind is the classification of the output this decision is about.
	Kind bundler.OutputKind
	// Destination is the path written, empty when nothing was written.
	Destination string
	// Reason explains non-200 statuses.
	Reason string
	// Content is the written chunk text, echoed for build reporting.
	Content string
}

// Writer writes classified bundler output to the canonical directories.
type Writer struct {
	fs        afero.Fs
	clientDir string
	pageDir   string
	assetDir  string
}

// NewWriter creates an artifact writer over fs.
func NewWriter(fs afero.Fs, clientDir, pageDir, assetDir string) *Writer {
	return &Writer{
		fs:        fs,
		clientDir: clientDir,
		pageDir:   pageDir,
		assetDir:  assetDir,
	}
}

// Write classifies each output and writes the accepted ones: the entry chunk
// to `<clientDir|pageDir>/<id>.js` depending on target, assets under the
// canonical prefix to `<assetDir>/<name>`. Every decision yields one status
// record; a single bad output never aborts the batch.
func (w *Writer) Write(id string, outputs []bundler.Output, target Target) []Status {
	if len(outputs) == 0 {
		return []Status{{
			Code:   StatusFailed,
			Reason: "bundler produced no output",
		}}
	}

	statuses := make([]Status, 0, len(outputs)+1)

	chunk, found := selectChunk(outputs)
	if found {
		statuses = append(statuses, w.writeChunk(id, chunk, target))
	} else {
		statuses = append(statuses, Status{
			Code:   StatusNotFound,
			Kind:   bundler.KindChunk,
			Reason: "no chunk in build output",
		})
	}

	for _, output := range outputs {
		if output.Kind == bundler.KindAsset {
			statuses = append(statuses, w.writeAsset(output))
		}
	}

	return statuses
}

// selectChunk picks the chunk compiled from the build input: the one marked
// as entry, or the first chunk when the bundler does not mark entries.
func selectChunk(outputs []bundler.Output) (bundler.Output, bool) {
	var first bundler.Output
	haveFirst := false

	for _, output := range outputs {
		if output.Kind != bundler.KindChunk {
			continue
		}
		if output.IsEntry {
			return output, true
		}
		if !haveFirst {
			first = output
			haveFirst = true
		}
	}

	return first, haveFirst
}

// WriteAssets writes only the asset outputs; chunks are ignored. Used by the
// asset-discovery build whose chunks are throwaway.
func (w *Writer) WriteAssets(outputs []bundler.Output) []Status {
	if len(outputs) == 0 {
		return []Status{{
			Code:   StatusFailed,
			Reason: "bundler produced no output",
		}}
	}

	var statuses []Status
	for _, output := range outputs {
		if output.Kind != bundler.KindAsset {
			continue
		}
		statuses = append(statuses, w.writeAsset(output))
	}

	return statuses
}

func (w *Writer) writeChunk(id string, output bundler.Output, target Target) Status {
	dir := w.clientDir
	if target == TargetPage {
		dir = w.pageDir
	}

	destination := filepath.Join(dir, id+".js")

	if err := w.writeFile(destination, []byte(output.Code)); err != nil {
		return Status{
			Code:   StatusFailed,
			Kind:   bundler.KindChunk,
			Reason: err.Error(),
		}
	}

	return Status{
		Code:        StatusOK,
		Kind:        bundler.KindChunk,
		Destination: destination,
		Content:     output.Code,
	}
}

func (w *Writer) writeAsset(output bundler.Output) Status {
	name := filepath.ToSlash(output.FileName)

	if !strings.HasPrefix(name, AssetPrefix) {
		return Status{
			Code:   StatusNotFound,
			Kind:   bundler.KindAsset,
			Reason: "asset outside the " + AssetPrefix + " prefix: " + name,
		}
	}

	relative := strings.TrimPrefix(name, AssetPrefix)
	if relative == "" || path.Clean(relative) != relative || strings.HasPrefix(relative, "..") {
		return Status{
			Code:   StatusNotFound,
			Kind:   bundler.KindAsset,
			Reason: "asset name is not a clean relative path: " + name,
		}
	}

	destination := filepath.Join(w.assetDir, filepath.FromSlash(relative))

	if err := w.writeFile(destination, output.Source); err != nil {
		return Status{
			Code:   StatusFailed,
			Kind:   bundler.KindAsset,
			Reason: err.Error(),
		}
	}

	return Status{
		Code:        StatusOK,
		Kind:        bundler.KindAsset,
		Destination: destination,
	}
}

func (w *Writer) writeFile(destination string, content []byte) error {
	if err := w.fs.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	return afero.WriteFile(w.fs, destination, content, 0o644)
}

// StyleNames extracts the stylesheet file names from build output: every
// asset under the canonical prefix ending in .css, directory prefix
// stripped.
func StyleNames(outputs []bundler.Output) []string {
	var names []string
	for _, output := range outputs {
		if output.Kind != bundler.KindAsset {
			continue
		}

		name := filepath.ToSlash(output.FileName)
		if !strings.HasPrefix(name, AssetPrefix) || !strings.HasSuffix(name, ".css") {
			continue
		}

		names = append(names, path.Base(name))
	}

	return names
}

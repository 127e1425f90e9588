// Package manifest owns the entry registry: every document of a serving or
// build session, keyed by canonical entry and, for lookup, by identity.
//
// The manifest is also the persistence boundary. It serializes to a flat
// JSON object of id to canonical entry, written in insertion order, and
// restores by re-registering every entry so reconstructed identities match
// what was saved. Production serving loads that record once and never
// re-derives an identity.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/stackpress/reactus/internal/artifact"
	"github.com/stackpress/reactus/internal/document"
	"github.com/stackpress/reactus/internal/errors"
)

// Manifest is the collection of documents for one session. No two documents
// share a canonical entry; a document, once created, is returned by every
// later GetOrCreate for an equivalent input.
type Manifest struct {
	env *document.Env

	mutex   sync.RWMutex
	byEntry map[string]*document.Document
	byID    map[string]*document.Document
	order   []string

	// group serializes creation per canonical entry so racing equivalent
	// inputs cannot register two documents for one entry.
	group singleflight.Group
}

// New creates an empty manifest over env.
func New(env *document.Env) *Manifest {
	return &Manifest{
		env:     env,
		byEntry: make(map[string]*document.Document),
		byID:    make(map[string]*document.Document),
	}
}

// GetOrCreate canonicalizes raw and returns the document registered under
// the canonical entry, creating it on first sight. Two calls with inputs
// that canonicalize identically return the identical document instance.
func (m *Manifest) GetOrCreate(raw string) (*document.Document, error) {
	entry, err := m.env.Resolver.Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	m.mutex.RLock()
	doc, exists := m.byEntry[entry]
	m.mutex.RUnlock()
	if exists {
		return doc, nil
	}

	result, err, _ := m.group.Do(entry, func() (any, error) {
		m.mutex.Lock()
		defer m.mutex.Unlock()

		if doc, exists := m.byEntry[entry]; exists {
			return doc, nil
		}

		doc := document.New(entry, m.env)
		m.byEntry[entry] = doc
		m.byID[doc.ID()] = doc
		m.order = append(m.order, entry)

		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*document.Document), nil
}

// Get returns the document for an already-canonical entry.
func (m *Manifest) Get(entry string) (*document.Document, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	doc, exists := m.byEntry[entry]

	return doc, exists
}

// Find returns the document with the given identity, or nil.
func (m *Manifest) Find(id string) *document.Document {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.byID[id]
}

// Size returns the number of registered documents.
func (m *Manifest) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.byEntry)
}

// Documents returns every document in insertion order.
func (m *Manifest) Documents() []*document.Document {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	docs := make([]*document.Document, 0, len(m.order))
	for _, entry := range m.order {
		docs = append(docs, m.byEntry[entry])
	}

	return docs
}

// Entries returns every canonical entry in insertion order.
func (m *Manifest) Entries() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	entries := make([]string, len(m.order))
	copy(entries, m.order)

	return entries
}

// Save writes the id to entry record as a flat JSON object, preserving
// insertion order.
func (m *Manifest) Save(path string) error {
	m.mutex.RLock()

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, entry := range m.order {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")

		key, err := json.Marshal(m.byEntry[entry].ID())
		if err == nil {
			var value []byte
			value, err = json.Marshal(entry)
			if err == nil {
				buf.Write(key)
				buf.WriteString(": ")
				buf.Write(value)
			}
		}
		if err != nil {
			m.mutex.RUnlock()

			return errors.NewInternalError("MANIFEST_ENCODE", "encoding manifest record", err)
		}
	}
	if len(m.order) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	m.mutex.RUnlock()

	if err := m.env.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewWriteFailure("MANIFEST_DIR", "creating manifest directory", err)
	}

	if err := afero.WriteFile(m.env.Fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.NewWriteFailure("MANIFEST_WRITE", "writing manifest "+path, err)
	}

	return nil
}

// Load restores a previously saved record by registering every entry
// through GetOrCreate. It runs to completion before returning: every
// insertion has happened and every reconstructed identity has been checked
// against its stored key.
func (m *Manifest) Load(path string) error {
	data, err := afero.ReadFile(m.env.Fs, path)
	if err != nil {
		return errors.NewArtifactMissing("MANIFEST_READ", "reading manifest "+path)
	}

	var record map[string]string
	if err := json.Unmarshal(data, &record); err != nil {
		return errors.NewInternalError("MANIFEST_DECODE", "decoding manifest "+path, err)
	}

	for id, entry := range record {
		doc, err := m.GetOrCreate(entry)
		if err != nil {
			return err
		}

		if doc.ID() != id {
			return errors.NewInternalError(
				"MANIFEST_ID_MISMATCH",
				"manifest record "+id+" reconstructed as "+doc.ID()+" for entry "+entry,
				nil,
			)
		}
	}

	return nil
}

// BuildStatus is the per-document outcome of a batch build.
type BuildStatus struct {
	Entry    string
	ID       string
	Statuses []artifact.Status
	Err      error
}

// BuildAll builds every document sequentially: asset discovery, the page
// module carrying the discovered stylesheet names, then the client bundle,
// with outputs persisted through writer. Per-document failures become
// status records; the batch never aborts early. Iteration is sequential by
// design, the external bundler resource is not assumed safe for overlapping
// builds.
func (m *Manifest) BuildAll(ctx context.Context, writer *artifact.Writer) []BuildStatus {
	docs := m.Documents()

	statuses := make([]BuildStatus, 0, len(docs))
	for _, doc := range docs {
		statuses = append(statuses, m.buildOne(ctx, writer, doc))
	}

	return statuses
}

func (m *Manifest) buildOne(ctx context.Context, writer *artifact.Writer, doc *document.Document) BuildStatus {
	status := BuildStatus{Entry: doc.Entry(), ID: doc.ID()}

	assets, err := doc.Assets(ctx)
	if err != nil {
		status.Err = err

		return status
	}
	status.Statuses = append(status.Statuses, writer.WriteAssets(assets)...)

	pageOutputs, err := doc.PageOutputs(ctx, artifact.StyleNames(assets))
	if err != nil {
		status.Err = err

		return status
	}
	status.Statuses = append(status.Statuses, writer.Write(doc.ID(), pageOutputs, artifact.TargetPage)...)

	clientOutputs, err := doc.ClientOutputs(ctx)
	if err != nil {
		status.Err = err

		return status
	}
	status.Statuses = append(status.Statuses, writer.Write(doc.ID(), clientOutputs, artifact.TargetClient)...)

	return status
}

package lsp

import (
	"strings"
	"sync"

	"github.com/glsld/glsld/internal/glsl"
)

// TextDocument represents a document open in the editor. Documents are
// replaced wholesale on every change so readers can keep a reference
// without locking.
type TextDocument struct {
	URI      string
	Text     string
	Version  int
	Snapshot *glsl.Snapshot
}

// DocumentManager manages open text documents and their snapshots.
type DocumentManager struct {
	documents map[string]*TextDocument
	mu        sync.RWMutex

	includes     glsl.IncludeSource
	defaultStage glsl.Stage
}

// NewDocumentManager creates a new document manager
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents:    make(map[string]*TextDocument),
		defaultStage: glsl.StageFragment,
	}
}

// Configure sets how snapshots resolve includes and pick their stage.
// Open documents keep their snapshot until Refresh.
func (m *DocumentManager) Configure(includes glsl.IncludeSource, defaultStage glsl.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.includes = includes
	m.defaultStage = defaultStage
}

func (m *DocumentManager) snapshot(uri, text string, version int) *glsl.Snapshot {
	m.mu.RLock()
	includes, fallback := m.includes, m.defaultStage
	m.mu.RUnlock()

	return glsl.NewSnapshot(text, glsl.SnapshotOptions{
		URI:      uri,
		Version:  version,
		Stage:    glsl.StageFromPath(glsl.URIToPath(uri), fallback),
		Includes: includes,
	})
}

// OpenDocument adds or replaces a document
func (m *DocumentManager) OpenDocument(uri string, text string, version int) *TextDocument {
	// Built outside the lock: include resolution reads other open documents.
	doc := &TextDocument{
		URI:      uri,
		Text:     text,
		Version:  version,
		Snapshot: m.snapshot(uri, text, version),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[uri] = doc
	return doc
}

// UpdateDocument replaces the text of a document. Updates older than the
// stored version are dropped and the current document is returned.
func (m *DocumentManager) UpdateDocument(uri string, text string, version int) *TextDocument {
	doc := &TextDocument{
		URI:      uri,
		Text:     text,
		Version:  version,
		Snapshot: m.snapshot(uri, text, version),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.documents[uri]; ok && current.Version > version {
		return current
	}
	m.documents[uri] = doc
	return doc
}

// CloseDocument removes a document
func (m *DocumentManager) CloseDocument(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, uri)
}

// GetDocument returns a document by URI
func (m *DocumentManager) GetDocument(uri string) (*TextDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[uri]
	return doc, ok
}

// Documents returns the open documents.
func (m *DocumentManager) Documents() []*TextDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*TextDocument, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs
}

// OpenUnit returns the parsed unit of an open document so includes see
// unsaved editor content.
func (m *DocumentManager) OpenUnit(uri string) (*glsl.Unit, bool) {
	doc, ok := m.GetDocument(uri)
	if !ok || doc.Snapshot == nil {
		return nil, false
	}
	return doc.Snapshot.Unit, true
}

// Refresh rebuilds the snapshots of all open documents, for example after
// the files they include changed on disk.
func (m *DocumentManager) Refresh() []*TextDocument {
	var refreshed []*TextDocument
	for _, doc := range m.Documents() {
		refreshed = append(refreshed, m.UpdateDocument(doc.URI, doc.Text, doc.Version))
	}
	return refreshed
}

// Close drops all documents.
func (m *DocumentManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[string]*TextDocument)
}

// LinePrefix returns the text of pos's line up to pos. The column counts
// characters and is clamped to the line length.
func LinePrefix(text string, pos glsl.Position) string {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}
	runes := []rune(line)
	col := min(max(pos.Column, 0), len(runes))
	return string(runes[:col])
}

// WordAt returns the identifier touching pos and whether it is the member
// of an access expression such as "light.color".
func WordAt(text string, pos glsl.Position) (string, bool) {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return "", false
	}
	runes := []rune(line)
	col := min(max(pos.Column, 0), len(runes))

	start, end := col, col
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	if start == end {
		return "", false
	}
	return string(runes[start:end]), start > 0 && runes[start-1] == '.'
}

func lineAt(text string, n int) (string, bool) {
	if n < 0 {
		return "", false
	}
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return "", false
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSuffix(text, "\r"), true
}

func isWordRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

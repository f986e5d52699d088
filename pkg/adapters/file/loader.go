// Package file provides filesystem-backed implementations of the loader
// and result store ports: assessments as YAML/JSON documents in a
// directory, results as JSON files written atomically.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BiAffectBridge/cairn/internal/compiler"
	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// Loader implements ports.AssessmentLoader over a directory of assessment
// documents (*.yaml, *.yml, *.json). Documents are parsed lazily on first
// access and indexed by their declared identifier.
type Loader struct {
	dir    string
	parser *compiler.Parser

	mu    sync.Mutex
	index map[string]string // identifier -> path
}

// NewLoader creates a loader over the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		parser: compiler.NewParser(),
	}
}

func (l *Loader) ensureIndex() error {
	if l.index != nil {
		return nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read assessment directory: %w", err)
	}
	index := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		node, err := l.parse(path)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		index[node.Identifier] = path
	}
	l.index = index
	return nil
}

func (l *Loader) parse(path string) (*domain.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assessment document: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return l.parser.ParseJSON(data)
	}
	return l.parser.ParseYAML(data)
}

// Load resolves an assessment by identifier.
func (l *Loader) Load(ctx context.Context, identifier string) (*domain.Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureIndex(); err != nil {
		return nil, err
	}
	path, ok := l.index[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssessmentNotFound, identifier)
	}
	return l.parse(path)
}

// List returns the identifiers of all parsable documents in the directory.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureIndex(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(l.index))
	for id := range l.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFile parses a single assessment document without indexing a
// directory. Used by the CLI for one-shot runs and validation.
func LoadFile(path string) (*domain.Node, error) {
	l := NewLoader(filepath.Dir(path))
	return l.parse(path)
}

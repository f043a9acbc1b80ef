// Package tree loads and validates the versioned assessment tree
// definitions. Trees are immutable after loading and shared read-only
// across all sessions.
package tree

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kneez/intake/pkg/domain"
)

//go:embed trees/v1.yaml
var defaultTreeYAML []byte

// DefaultVersion is served when the caller does not request a version.
const DefaultVersion = "v1"

// document is the on-disk shape of one tree definition.
type document struct {
	Version string        `yaml:"version"`
	Entry   string        `yaml:"entry"`
	Nodes   []domain.Node `yaml:"nodes"`
}

// Tree is one immutable assessment tree definition.
type Tree struct {
	Version string
	Entry   string

	nodes map[string]*domain.Node
	order []string
}

// Node resolves a node by id. The returned node is shared and must be
// treated as read-only.
func (t *Tree) Node(id string) (*domain.Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// EntryNode returns the tree's entry node.
func (t *Tree) EntryNode() *domain.Node {
	return t.nodes[t.Entry]
}

// Nodes returns copies of all nodes in declared order, for introspection.
func (t *Tree) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.nodes[id])
	}
	return out
}

// Parse decodes a yaml tree document. Structural validation happens in
// Validate, not here.
func Parse(data []byte) (*Tree, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tree document: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("tree document missing version")
	}

	t := &Tree{
		Version: doc.Version,
		Entry:   doc.Entry,
		nodes:   make(map[string]*domain.Node, len(doc.Nodes)),
	}
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("tree %s: node %d missing id", doc.Version, i)
		}
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("tree %s: duplicate node id %q", doc.Version, n.ID)
		}
		t.nodes[n.ID] = &n
		t.order = append(t.order, n.ID)
	}
	return t, nil
}

// Default returns the embedded v1 knee tree.
func Default() *Tree {
	t, err := Parse(defaultTreeYAML)
	if err != nil {
		// The embedded tree is part of the build; failing to parse it is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("embedded default tree is invalid: %v", err))
	}
	return t
}

// LoadDir parses every .yaml/.yml file in dir as a tree document.
func LoadDir(dir string) ([]*Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree directory: %w", err)
	}

	var trees []*Tree
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// Registry holds the loaded tree versions. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	trees          map[string]*Tree
	defaultVersion string
}

// NewRegistry validates each tree and indexes it by version. Later trees
// with the same version override earlier ones, so callers can layer a
// directory over the embedded default.
func NewRegistry(trees ...*Tree) (*Registry, error) {
	r := &Registry{
		trees:          make(map[string]*Tree, len(trees)),
		defaultVersion: DefaultVersion,
	}
	for _, t := range trees {
		if err := Validate(t); err != nil {
			return nil, err
		}
		r.trees[t.Version] = t
	}
	if len(r.trees) == 0 {
		return nil, fmt.Errorf("registry requires at least one tree")
	}
	if _, ok := r.trees[r.defaultVersion]; !ok {
		// Fall back to the lexically first version as default.
		versions := r.Versions()
		r.defaultVersion = versions[0]
	}
	return r, nil
}

// Tree resolves a version; the empty string selects the default.
func (r *Registry) Tree(version string) (*Tree, error) {
	if version == "" {
		version = r.defaultVersion
	}
	t, ok := r.trees[version]
	if !ok {
		return nil, &domain.TreeConfigError{
			Version: version,
			Reason:  "unknown tree version",
		}
	}
	return t, nil
}

// Versions lists the available versions, sorted.
func (r *Registry) Versions() []string {
	versions := make([]string, 0, len(r.trees))
	for v := range r.trees {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

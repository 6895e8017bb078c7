package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Names of the built-in prompts.
const (
	GenerateSQL     = "generate_sql"
	DescribeResults = "describe_results"
)

// DefaultCacheSize bounds how many parsed prompts a Registry keeps.
const DefaultCacheSize = 16

//go:embed templates/*.prompt
var builtin embed.FS

// Registry resolves prompt names to parsed prompts, caching the parse result.
type Registry struct {
	fsys  fs.FS
	dir   string
	cache *lru.Cache[string, *Prompt]
}

// NewRegistry serves "<name>.prompt" files from dir inside fsys.
func NewRegistry(fsys fs.FS, dir string, size int) (*Registry, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Prompt](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt cache: %w", err)
	}
	return &Registry{fsys: fsys, dir: dir, cache: cache}, nil
}

// Builtin returns a Registry over the embedded templates.
func Builtin() *Registry {
	r, err := NewRegistry(builtin, "templates", DefaultCacheSize)
	if err != nil {
		// only reachable with a non-positive size, which NewRegistry replaces
		panic(err)
	}
	return r
}

// Get returns the named prompt, parsing it on first use.
func (r *Registry) Get(name string) (*Prompt, error) {
	if p, ok := r.cache.Get(name); ok {
		return p, nil
	}

	data, err := fs.ReadFile(r.fsys, path.Join(r.dir, name+".prompt"))
	if err != nil {
		return nil, fmt.Errorf("prompt %q not found: %w", name, err)
	}
	p, err := Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("prompt %q: %w", name, err)
	}
	r.cache.Add(name, p)
	return p, nil
}

// Package analyzer exposes per-module source analysis: attribute doc
// comments, declaration order, declared overload sets, assignment
// annotations, and final markers. Analyses come from a Provider (typically
// the loaded object graph) and are memoized by module name, including the
// "module has no source" negative result.
package analyzer

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/turky/sphinx/internal/introspect"
)

// ErrNoSource reports that no source text is available for a module, e.g.
// a builtin or compiled extension. Cached like any other result.
var ErrNoSource = errors.New("no source available for module")

// Key addresses an attribute inside a module: Namespace is the dotted
// class path ("" for module level) and Name the attribute name.
type Key struct {
	Namespace string
	Name      string
}

// Analysis is the result of analyzing one module's source.
type Analysis struct {
	// SourceFile is the path of the analyzed source, recorded as a build
	// dependency by consumers.
	SourceFile string
	// AttrDocs maps attributes to the doc-comment lines attached to their
	// assignment in source.
	AttrDocs map[Key][]string
	// TagOrder maps dotted member names to their declaration position.
	TagOrder map[string]int
	// Overloads maps dotted callable names to their declared overload
	// signatures, in declaration order.
	Overloads map[string][]*introspect.Signature
	// Annotations maps attributes to their declared type annotation text.
	Annotations map[Key]string
	// Finals holds dotted names declared final.
	Finals map[string]bool
}

// Provider produces analyses on demand. Analyze returns ErrNoSource
// (possibly wrapped) when the module has no analyzable source.
type Provider interface {
	Analyze(module string) (*Analysis, error)
}

type cacheEntry struct {
	analysis *Analysis
	err      error
}

// Cache memoizes Provider results by module name. Failed analyses are
// cached too, so repeated documenters of a source-less module do not re-run
// the provider. Concurrent first lookups collapse via singleflight.
type Cache struct {
	provider Provider

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCache wraps a provider in a memoizing cache.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		entries:  make(map[string]cacheEntry),
	}
}

// ForModule returns the memoized analysis for a module.
func (c *Cache) ForModule(module string) (*Analysis, error) {
	c.mu.RLock()
	entry, ok := c.entries[module]
	c.mu.RUnlock()
	if ok {
		return entry.analysis, entry.err
	}

	v, err, _ := c.group.Do(module, func() (any, error) {
		analysis, err := c.provider.Analyze(module)
		if err != nil {
			err = fmt.Errorf("analyzing module %s: %w", module, err)
		}
		c.mu.Lock()
		c.entries[module] = cacheEntry{analysis: analysis, err: err}
		c.mu.Unlock()
		return analysis, err
	})
	if err != nil {
		return nil, err
	}
	analysis, _ := v.(*Analysis)
	return analysis, nil
}

// NoSourceProvider is a Provider that knows no modules. Useful as a default
// when generation runs without source analysis.
type NoSourceProvider struct{}

func (NoSourceProvider) Analyze(module string) (*Analysis, error) {
	return nil, ErrNoSource
}

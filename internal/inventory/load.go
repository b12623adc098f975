package inventory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadFile decodes one inventory file from disk.
func LoadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadAll fetches every declared inventory concurrently and assembles a
// Set. Merge order (and therefore merged-view precedence) is the sorted
// order of inventory names, independent of fetch completion order.
func LoadAll(ctx context.Context, sources map[string]string) (*Set, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	loaded := make(map[string]*Project, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := LoadFile(sources[name])
			if err != nil {
				return fmt.Errorf("inventory %s: %w", name, err)
			}
			mu.Lock()
			loaded[name] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewSet()
	for _, name := range names {
		set.Add(name, loaded[name].Inventory)
	}
	return set, nil
}

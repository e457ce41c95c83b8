package websearch

import (
	"context"
	"errors"
	"sync"
)

// Combined queries two backends concurrently and interleaves their results.
type Combined struct {
	primary   Engine
	secondary Engine
}

// NewCombined merges results from two engines round-robin, primary first.
func NewCombined(primary, secondary Engine) *Combined {
	return &Combined{primary: primary, secondary: secondary}
}

// Name implements Engine.
func (c *Combined) Name() string {
	return c.primary.Name() + "+" + c.secondary.Name()
}

// Search implements Engine. A single backend failure is tolerated; the
// call fails only when both backends fail.
func (c *Combined) Search(ctx context.Context, query string) ([]Result, error) {
	var (
		wg                 sync.WaitGroup
		primary, secondary []Result
		errPri, errSec     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		primary, errPri = c.primary.Search(ctx, query)
	}()
	go func() {
		defer wg.Done()
		secondary, errSec = c.secondary.Search(ctx, query)
	}()
	wg.Wait()

	if errPri != nil && errSec != nil {
		return nil, errors.Join(errPri, errSec)
	}

	return interleave(primary, secondary, maxResults), nil
}

// interleave alternates a, b, a, b, skipping duplicate URLs, until limit
// results are collected or both lists are exhausted.
func interleave(a, b []Result, limit int) []Result {
	merged := make([]Result, 0, limit)
	seen := make(map[string]bool, limit)

	appendUnique := func(r Result) {
		if len(merged) >= limit || seen[r.URL] {
			return
		}
		seen[r.URL] = true
		merged = append(merged, r)
	}

	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			appendUnique(a[i])
		}
		if i < len(b) {
			appendUnique(b[i])
		}
		if len(merged) >= limit {
			break
		}
	}
	return merged
}

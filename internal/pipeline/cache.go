package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// ConfigurationError reports a process phase invoked without a matching
// prior analyze. It is fatal: nothing is dispatched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("analysis cache unusable: %s", e.Reason)
}

// Cache holds the analysis results the process phase consumes, keyed by
// relative path and stamped with the settings fingerprint they were
// produced under. The process phase must present the same fingerprint;
// a mutation between the phases invalidates the cache eagerly.
type Cache struct {
	mu          sync.RWMutex
	fingerprint string
	entries     map[string]AnalysisResult
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]AnalysisResult{}}
}

// Replace discards all cached results and installs the new set under the
// given settings fingerprint.
func (c *Cache) Replace(fingerprint string, results []AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fingerprint
	c.entries = make(map[string]AnalysisResult, len(results))
	for _, r := range results {
		c.entries[r.RelativePath] = r
	}
}

// Invalidate empties the cache. Called on any settings mutation.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = ""
	c.entries = map[string]AnalysisResult{}
}

// Get returns the cached result for a relative path.
func (c *Cache) Get(rel string) (AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[rel]
	return r, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns the cached relative paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Check validates that the cache is populated and was produced under the
// given settings fingerprint. It returns a ConfigurationError otherwise.
func (c *Cache) Check(fingerprint string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return &ConfigurationError{Reason: "no analysis has been run"}
	}
	if c.fingerprint != fingerprint {
		return &ConfigurationError{Reason: "settings changed since analysis, re-run analyze"}
	}
	return nil
}

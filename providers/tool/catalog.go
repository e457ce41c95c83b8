package tool

import (
	"strings"
	"sync"

	"github.com/telmok/anychat/providers/ai"
)

// Catalog is a thread-safe collection of tools keyed by lowercase name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewCatalog creates a catalog pre-populated with the given tools.
func NewCatalog(tools ...Tool) *Catalog {
	catalog := &Catalog{tools: make(map[string]Tool, len(tools))}
	catalog.Add(tools...)
	return catalog
}

// Add registers tools, replacing any existing tool with the same name.
func (c *Catalog) Add(tools ...Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools[strings.ToLower(t.Info().Name)] = t
	}
}

// Get retrieves a tool by name (case-insensitive).
func (c *Catalog) Get(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, exists := c.tools[strings.ToLower(name)]
	return t, exists
}

// Descriptions returns the tool descriptions to advertise to a provider.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	descriptions := make([]ai.ToolDescription, 0, len(c.tools))
	for _, t := range c.tools {
		descriptions = append(descriptions, t.Info())
	}
	return descriptions
}

// Size returns the number of registered tools.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Registry holds all loaded prompts.
type Registry struct {
	prompts map[string]*PromptTemplate
	mu      sync.RWMutex
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton, preloaded with the drafting
// defaults.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{prompts: make(map[string]*PromptTemplate)}
		registerDefaults(globalRegistry)
	})
	return globalRegistry
}

// Register adds a prompt template to the registry, replacing any template
// with the same ID.
func (r *Registry) Register(pt *PromptTemplate) error {
	if pt.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[pt.ID] = pt
	return nil
}

// GetPrompt retrieves a prompt by ID.
func (r *Registry) GetPrompt(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.prompts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// Count returns the number of registered prompts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}

// Clear removes all prompts except the hardcoded defaults.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = make(map[string]*PromptTemplate)
	registerDefaultsLocked(r)
}

// LoadFromDirectory loads prompt JSON files from baseDir, overriding any
// default with the same ID. File layout: baseDir/<category>/<name>.json;
// missing IDs are derived from the path.
func LoadFromDirectory(baseDir string) error {
	registry := Get()

	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		return fmt.Errorf("prompts directory not found: %s", baseDir)
	}

	return filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if pt.ID == "" {
			rel, _ := filepath.Rel(baseDir, path)
			rel = strings.TrimSuffix(rel, ".json")
			pt.ID = strings.ReplaceAll(rel, string(filepath.Separator), ".")
		}
		if pt.Category == "" {
			if i := strings.IndexByte(pt.ID, '.'); i > 0 {
				pt.Category = pt.ID[:i]
			}
		}

		return registry.Register(&pt)
	})
}

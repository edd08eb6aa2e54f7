// Package registry holds the applications that are allowed to present banners.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry errors.
var (
	ErrEmptyApplicationID   = errors.New("application id cannot be empty")
	ErrDuplicateApplication = errors.New("application already registered")
)

// Application is the display metadata registered for an application identifier.
type Application struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	IconPath string `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
}

// DisplayName returns the application name, falling back to its identifier.
func (a Application) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Registry is a thread-safe map of application identifiers to their metadata.
type Registry struct {
	mu   sync.RWMutex
	apps map[string]Application
}

// New creates a registry pre-populated with apps.
// Later duplicates overwrite earlier ones.
func New(apps ...Application) *Registry {
	r := &Registry{apps: make(map[string]Application, len(apps))}
	for _, app := range apps {
		if app.ID == "" {
			continue
		}
		r.apps[app.ID] = app
	}
	return r
}

// Register adds an application. It fails if the identifier is empty or already registered.
func (r *Registry) Register(app Application) error {
	if strings.TrimSpace(app.ID) == "" {
		return ErrEmptyApplicationID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[app.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateApplication, app.ID)
	}
	r.apps[app.ID] = app
	return nil
}

// Upsert adds or replaces an application.
func (r *Registry) Upsert(app Application) error {
	if strings.TrimSpace(app.ID) == "" {
		return ErrEmptyApplicationID
	}

	r.mu.Lock()
	r.apps[app.ID] = app
	r.mu.Unlock()
	return nil
}

// Unregister removes an application. Returns false if it was not registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[id]; !exists {
		return false
	}
	delete(r.apps, id)
	return true
}

// Lookup returns the application registered under id.
func (r *Registry) Lookup(id string) (Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	return app, ok
}

// IsRegistered reports whether id is registered.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// List returns all registered applications sorted by identifier.
func (r *Registry) List() []Application {
	r.mu.RLock()
	apps := make([]Application, 0, len(r.apps))
	for _, app := range r.apps {
		apps = append(apps, app)
	}
	r.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].ID < apps[j].ID
	})
	return apps
}

// Count returns the number of registered applications.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}

// Replace swaps the registry contents for apps, keeping any identifiers listed in keep.
// Entries with an empty identifier are skipped.
func (r *Registry) Replace(apps []Application, keep ...string) {
	next := make(map[string]Application, len(apps)+len(keep))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range keep {
		if app, ok := r.apps[id]; ok {
			next[id] = app
		}
	}
	for _, app := range apps {
		if app.ID == "" {
			continue
		}
		next[app.ID] = app
	}
	r.apps = next
}

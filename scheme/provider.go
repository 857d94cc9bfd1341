package scheme

import (
	"sync"

	"github.com/world-in-progress/hermes/core/logger"
)

// Fallback is the scheme used when nothing else yields a valid one.
const Fallback = "hunreal"

type (
	// Provider lets a plugin choose the scheme, e.g. one per branch so several checkouts can coexist.
	// Returning false defers to the next provider.
	Provider interface {
		PreferredScheme() (string, bool)
	}

	// ProviderFunc adapts a function to Provider.
	ProviderFunc func() (string, bool)

	// Providers is an ordered set of providers; earlier registrations win.
	Providers struct {
		mu          sync.RWMutex
		nextID      int
		providers   []providerEntry
		subscribers []func()
	}

	providerEntry struct {
		id int
		p  Provider
	}

	// Picker applies the selection order: providers, then the last scheme (only during early
	// initialization), then the configured default.
	Picker struct {
		Providers *Providers
		Default   string
	}
)

func (f ProviderFunc) PreferredScheme() (string, bool) { return f() }

func NewProviders() *Providers {
	return &Providers{}
}

// Register appends p and notifies subscribers. The returned func removes it again and
// reports whether it was still registered.
func (ps *Providers) Register(p Provider) (unregister func() bool) {
	ps.mu.Lock()
	ps.nextID++
	id := ps.nextID
	ps.providers = append(ps.providers, providerEntry{id: id, p: p})
	ps.mu.Unlock()
	ps.notify()

	return func() bool { return ps.remove(id) }
}

func (ps *Providers) remove(id int) bool {
	ps.mu.Lock()
	removed := false
	for i, entry := range ps.providers {
		if entry.id == id {
			ps.providers = append(ps.providers[:i], ps.providers[i+1:]...)
			removed = true
			break
		}
	}
	ps.mu.Unlock()

	if removed {
		ps.notify()
	}
	return removed
}

// Subscribe registers fn to be called after every change to the set.
func (ps *Providers) Subscribe(fn func()) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.subscribers = append(ps.subscribers, fn)
}

// Preferred returns the first scheme offered by a provider, in registration order.
func (ps *Providers) Preferred() (string, bool) {
	if ps == nil {
		return "", false
	}
	ps.mu.RLock()
	entries := append([]providerEntry(nil), ps.providers...)
	ps.mu.RUnlock()

	for _, entry := range entries {
		if s, ok := entry.p.PreferredScheme(); ok {
			return s, true
		}
	}
	return "", false
}

func (ps *Providers) notify() {
	ps.mu.RLock()
	subscribers := append([]func(){}, ps.subscribers...)
	ps.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}

// DefaultScheme returns the configured scheme when valid, else the sanitized project name, else Fallback.
func DefaultScheme(configured, project string) string {
	if s, ok := Sanitize(configured); ok {
		return s
	}
	if s, ok := Sanitize(project); ok {
		return s
	}
	return Fallback
}

// Pick chooses the scheme. last is only honoured before the server is fully initialized, so that
// registration can start before late providers have had a chance to register.
func (p Picker) Pick(fullyInitialized bool, last string) string {
	if s, ok := p.Providers.Preferred(); ok {
		logger.Debug("scheme %s picked by provider", s)
		return s
	}

	if !fullyInitialized && last != "" {
		logger.Debug("scheme %s picked from the previous run", last)
		return last
	}

	if p.Default != "" {
		return p.Default
	}
	return Fallback
}

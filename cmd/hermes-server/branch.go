package main

import (
	"sync"

	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/scheme"
)

// branchSupport is registered once as a scheme provider; config reloads swap what it
// resolves to without adding or removing providers.
type branchSupport struct {
	mu       sync.RWMutex
	provider *scheme.BranchProvider
}

func newBranchSupport(cfg config.ServerConfig) *branchSupport {
	b := &branchSupport{}
	b.apply(cfg)
	return b
}

func (b *branchSupport) apply(cfg config.ServerConfig) {
	var provider *scheme.BranchProvider
	if cfg.Branch.Enabled || cfg.Branch.Name != "" {
		replacements := make([]scheme.Replacement, 0, len(cfg.Branch.Replacements))
		for _, r := range cfg.Branch.Replacements {
			replacements = append(replacements, scheme.Replacement{Token: r.Token, Replacement: r.Replacement})
		}
		provider = scheme.NewBranchProvider(cfg.Branch.Name, cfg.ProjectName, replacements)
		preview := provider.Preview()
		logger.Debug("branch %q resolves to scheme %s", preview.Branch, preview.Scheme)
	}

	b.mu.Lock()
	b.provider = provider
	b.mu.Unlock()
}

func (b *branchSupport) PreferredScheme() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.provider == nil {
		return "", false
	}
	return b.provider.PreferredScheme()
}

func (b *branchSupport) Preview() scheme.Preview {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.provider == nil {
		return scheme.NewBranchProvider("", "", nil).Preview()
	}
	return b.provider.Preview()
}

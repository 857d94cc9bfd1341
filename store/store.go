// Package store persists URI scheme registrations: the command to launch when no server
// answers, and optional per-hostname command lines.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("protocol not registered")

type (
	// Protocol is one registered URI scheme.
	Protocol struct {
		Name string `yaml:"name" bson:"_id"`
		// Command is launched when no server is running; "%1" is replaced by the relayed message.
		Command []string `yaml:"command,omitempty" bson:"command,omitempty"`
		// Debug makes the OS association start the helper with --debug.
		Debug bool `yaml:"debug,omitempty" bson:"debug,omitempty"`
		// Hosts maps hostnames to command lines; "%1" is replaced by the URI path.
		Hosts     map[string][]string `yaml:"hosts,omitempty" bson:"hosts,omitempty"`
		UpdatedAt time.Time           `yaml:"updated_at" bson:"updated_at"`
	}

	// Store is the registration repository.
	Store interface {
		Get(ctx context.Context, name string) (*Protocol, error)
		Put(ctx context.Context, p *Protocol) error
		Delete(ctx context.Context, name string) error
		List(ctx context.Context) ([]Protocol, error)
		Close(ctx context.Context) error
	}
)

// HostCommand returns the command line registered for hostname.
func (p *Protocol) HostCommand(hostname string) ([]string, bool) {
	if p == nil || p.Hosts == nil {
		return nil, false
	}
	cmd, ok := p.Hosts[hostname]
	return cmd, ok
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const lastSchemeKey = "last_scheme"

// Settings holds per-project values that survive restarts, such as the last registered scheme.
type Settings struct {
	path string
	v    *viper.Viper
	mu   sync.Mutex
}

// OpenSettings loads <dir>/settings.yaml, starting empty when the file does not exist yet.
func OpenSettings(dir string) (*Settings, error) {
	s := &Settings{
		path: filepath.Join(dir, "settings.yaml"),
		v:    viper.New(),
	}
	s.v.SetConfigFile(s.path)
	s.v.SetConfigType("yaml")
	if err := s.v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Settings) LastScheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(lastSchemeKey)
}

// SetLastScheme persists scheme; an empty scheme clears the value.
func (s *Settings) SetLastScheme(scheme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(lastSchemeKey, scheme)
	return s.save()
}

func (s *Settings) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	return s.v.WriteConfigAs(s.path)
}

// Package discovery records which local port serves which URI scheme, so the
// helper can find a running server without a fixed, well-known port.
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/world-in-progress/hermes/core/logger"
)

type Record struct {
	PID       int    `json:"pid"`
	Port      int    `json:"port"`
	Scheme    string `json:"scheme"`
	Version   string `json:"version,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

var (
	isProcessAlive = processAlive
	now            = time.Now
)

// Path returns the lock file for scheme under the state directory.
func Path(dir, scheme string) string {
	return filepath.Join(dir, "run", scheme+".lock.json")
}

// Write stores rec, stamping UpdatedAt when it is empty.
func Write(dir string, rec Record) error {
	if rec.Scheme == "" {
		return fmt.Errorf("discovery record without scheme")
	}
	path := Path(dir, rec.Scheme)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// write then rename so a concurrent reader never sees half a record
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read returns the record for scheme, or nil when there is none.
func Read(dir, scheme string) (*Record, error) {
	path := Path(dir, scheme)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid discovery record at %s: %w", path, err)
	}
	return &rec, nil
}

// Remove deletes the record for scheme if it is owned by pid.
func Remove(dir, scheme string, pid int) error {
	rec, err := Read(dir, scheme)
	if err != nil || rec == nil {
		return err
	}
	if rec.PID != pid {
		logger.Debug("discovery record for %s is owned by pid %d, not %d; leaving it", scheme, rec.PID, pid)
		return nil
	}
	if err := os.Remove(Path(dir, scheme)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Lookup returns a record whose process is still running. Stale or malformed records are removed.
func Lookup(dir, scheme string) (*Record, error) {
	rec, err := Read(dir, scheme)
	if err != nil {
		logger.Warn("discarding unreadable discovery record for %s: %v", scheme, err)
		_ = os.Remove(Path(dir, scheme))
		return nil, nil
	}
	if rec == nil {
		return nil, nil
	}
	if rec.PID <= 0 || rec.Port <= 0 || !isProcessAlive(rec.PID) {
		logger.Debug("removing stale discovery record for %s (pid=%d, port=%d)", scheme, rec.PID, rec.Port)
		if err := os.Remove(Path(dir, scheme)); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		return nil, nil
	}
	return rec, nil
}

package logger

import (
	"os"
	"path/filepath"
)

// MaxLogSize is how large a log file may grow before it is rotated. Only the current and one old log are kept.
const MaxLogSize int64 = 64 * 1024

// OpenRotated opens path for appending, first moving it to "<path>.old" when it has grown past maxSize.
// If the old log cannot be replaced, the current one is truncated instead.
func OpenRotated(path string, maxSize int64) (*os.File, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
		if err := os.Rename(path, path+".old"); err != nil {
			if err := os.Remove(path); err != nil {
				return os.Create(path)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// ExeRelativePath returns filename placed next to the running executable.
func ExeRelativePath(filename string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), filename), nil
}

// UseFile sends all output to the rotated log at path, and to stderr as well when console is set.
// The returned file must be closed by the caller.
func UseFile(path string, console bool) (*os.File, error) {
	f, err := OpenRotated(path, MaxLogSize)
	if err != nil {
		return nil, err
	}
	if console {
		SetOutput(f, os.Stderr)
	} else {
		SetOutput(f)
	}
	return f, nil
}

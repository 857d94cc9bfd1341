//go:build !linux && !windows

package osreg

type unsupported struct{}

// Default returns the integrator for the running platform.
func Default() Integrator {
	return unsupported{}
}

func (unsupported) Install(string, []string) error { return ErrUnsupported }

func (unsupported) Uninstall(string) error { return ErrUnsupported }

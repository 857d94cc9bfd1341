package osreg

// Default returns the integrator for the running platform.
func Default() Integrator {
	return &RegistryIntegrator{}
}

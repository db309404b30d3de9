//go:build !linux

package platform

// ResolveDisplay is a no-op outside Linux: there is no X display to pick.
func ResolveDisplay(cfg *Config) error { return nil }

func SaveTermState()    {}
func RestoreTermState() {}

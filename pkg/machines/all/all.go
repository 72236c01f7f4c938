// Package all is a convenience wrapper that registers all known machine implementations.
// Importing this package enables the goftms factory to find drivers for any
// supported machine brand.
package all

// Import each implementation package for its side-effects (the init() function).
import (
	_ "github.com/mlsorensen/goftms/pkg/machines/mobi"
	_ "github.com/mlsorensen/goftms/pkg/machines/mock"
	_ "github.com/mlsorensen/goftms/pkg/machines/standard"
)

//go:build purego

package vecmath

import (
	// Generic implementations (pure Go fallback)
	_ "github.com/iocbio/deconvolve/internal/vecmath/arch/generic"
	// Import registry package
	_ "github.com/iocbio/deconvolve/internal/vecmath/registry"
)

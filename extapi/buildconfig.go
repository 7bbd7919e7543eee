package extapi

import (
	"fmt"
	"strconv"
)

// BuildConfiguration selects one of the byte layouts the engine publishes
// for builtin types: real_t precision crossed with pointer width.
type BuildConfiguration string

const (
	Float32  BuildConfiguration = "float_32"
	Float64  BuildConfiguration = "float_64"
	Double32 BuildConfiguration = "double_32"
	Double64 BuildConfiguration = "double_64"
)

// AllConfigurations lists every configuration in the engine's order.
var AllConfigurations = []BuildConfiguration{Float32, Float64, Double32, Double64}

// ParseBuildConfiguration validates a configuration name.
func ParseBuildConfiguration(s string) (BuildConfiguration, error) {
	for _, c := range AllConfigurations {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown build configuration %q (want one of float_32, float_64, double_32, double_64)", s)
}

// ConfigurationFor derives the configuration from a precision ("single" or
// "double") and a pointer width in bits. pointerBits 0 means the host width.
func ConfigurationFor(precision string, pointerBits int) (BuildConfiguration, error) {
	if pointerBits == 0 {
		pointerBits = strconv.IntSize
	}
	if pointerBits != 32 && pointerBits != 64 {
		return "", fmt.Errorf("unsupported pointer width %d", pointerBits)
	}
	switch precision {
	case "", "single":
		if pointerBits == 32 {
			return Float32, nil
		}
		return Float64, nil
	case "double":
		if pointerBits == 32 {
			return Double32, nil
		}
		return Double64, nil
	}
	return "", fmt.Errorf("unknown precision %q (want single or double)", precision)
}

// IsDouble reports whether real_t is 64-bit.
func (c BuildConfiguration) IsDouble() bool {
	return c == Double32 || c == Double64
}

// PointerBits is the pointer width the layout was computed for.
func (c BuildConfiguration) PointerBits() int {
	if c == Float32 || c == Double32 {
		return 32
	}
	return 64
}

// RealBytes is the size of real_t.
func (c BuildConfiguration) RealBytes() int {
	if c.IsDouble() {
		return 8
	}
	return 4
}

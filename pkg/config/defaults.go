package config

import (
	_ "embed"

	"github.com/knadh/koanf/maps"
)

//go:embed embedded/defaults.toml
var defaultsTOML []byte

// HostDefaults returns a fresh copy of the built-in defaults layer.
func HostDefaults() map[string]any {
	m, err := ParseDocument(defaultsTOML, "toml")
	if err != nil {
		// The embedded document is fixed at build time.
		panic(err)
	}
	return m
}

// MergeDefaults deep-merges the given layers left to right into a new map.
// Later layers win for scalars and arrays; maps merge recursively.
func MergeDefaults(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		maps.Merge(NormalizeDocument(layer), out)
	}
	return out
}

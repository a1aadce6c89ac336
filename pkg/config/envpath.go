package config

import (
	"strings"
)

const (
	// EnvPrefix is the namespace of rag2f environment variables.
	EnvPrefix = "RAG2F"

	// EnvSeparator is the only segment separator in variable names.
	EnvSeparator = "__"

	// PathDelimiter separates segments in key paths such as "plugins.foo.bar".
	PathDelimiter = "."
)

// EnvCodec maps environment variable names to key paths.
type EnvCodec struct {
	prefix string
}

// DefaultEnvCodec uses the fixed RAG2F prefix.
var DefaultEnvCodec = NewEnvCodec(EnvPrefix)

// NewEnvCodec returns a codec for PREFIX__SEGMENT__SEGMENT names.
func NewEnvCodec(prefix string) EnvCodec {
	return EnvCodec{prefix: strings.ToUpper(strings.TrimSuffix(prefix, EnvSeparator))}
}

// Prefix returns the variable prefix without the trailing separator.
func (c EnvCodec) Prefix() string {
	return c.prefix
}

// Decode splits a variable name into lower-cased path segments. It reports
// false for names outside the prefix namespace, names without segments and
// names with an empty or dotted segment; such variables are simply ignored.
func (c EnvCodec) Decode(name string) ([]string, bool) {
	head := c.prefix + EnvSeparator
	if len(name) <= len(head) || !strings.EqualFold(name[:len(head)], head) {
		return nil, false
	}

	parts := strings.Split(name[len(head):], EnvSeparator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || strings.Contains(part, PathDelimiter) {
			return nil, false
		}
		segments = append(segments, strings.ToLower(part))
	}
	return segments, true
}

// Encode builds the variable name that overrides path. It is meant for
// diagnostics; Decode(Encode(p)) returns p lower-cased.
func (c EnvCodec) Encode(path []string) string {
	upper := make([]string, len(path))
	for i, seg := range path {
		upper[i] = strings.ToUpper(seg)
	}
	return c.prefix + EnvSeparator + strings.Join(upper, EnvSeparator)
}

// EncodePath is Encode for a dotted key path.
func (c EnvCodec) EncodePath(path string) string {
	return c.Encode(SplitPath(path))
}

// SplitPath lower-cases a dotted key path and splits it into segments.
// Empty segments are dropped.
func SplitPath(path string) []string {
	raw := strings.Split(strings.ToLower(path), PathDelimiter)
	segments := raw[:0]
	for _, seg := range raw {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// JoinPath joins segments into a dotted key path.
func JoinPath(segments ...string) string {
	return strings.Join(segments, PathDelimiter)
}

// Package paths resolves rag2f's default locations following the XDG Base
// Directory specification, with environment overrides.
package paths

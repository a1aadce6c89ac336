// Package testutil provides helpers for testing rag2f components.
//
// Key components:
//   - PluginTree: declarative plugin directory setup on an in-memory afero
//     filesystem, including installed package metadata
//   - Environ: environment maps for config.Build without touching the process
//     environment
//   - CreateFile: real files under t.TempDir for tests that need the OS
//     filesystem (file providers, watchers, CLI)
//
// Tests should prefer the in-memory tree; real files are for code that
// opens paths itself.
package testutil

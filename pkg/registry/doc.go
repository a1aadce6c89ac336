// Package registry provides a generic, thread-safe registry of named items.
// The plugin catalog uses it to hold compiled-in plugins keyed by their
// import target.
package registry

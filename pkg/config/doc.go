// Package config resolves rag2f configuration from three layers: in-code
// defaults, a JSON (or TOML/YAML) document, and RAG2F__* environment
// variables. Environment variables always win, at leaf granularity.
//
// Variable names map to key paths by splitting on double underscores after
// the RAG2F prefix and lower-casing every segment:
//
//	RAG2F__PLUGINS__FOO__BAR=8   ->   plugins.foo.bar = int64(8)
//
// Values coming from the environment go through ParseValue, so "8" is an
// integer, "true" a boolean and "null" a JSON null.
//
// A Resolved tree is immutable once built. Reloading produces a new tree that
// is published through a Holder; readers holding the old tree keep seeing it.
package config

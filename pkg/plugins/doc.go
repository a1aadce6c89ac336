// Package plugins discovers, describes and loads rag2f plugins.
//
// Plugins come from two sources. Entry points are advertised by compiled-in
// catalogs or by installed package metadata (entry_points.toml) under the
// "rag2f.plugins" group. Filesystem plugins are directories under a plugins
// root carrying a manifest (plugin.json, plugin.yaml, plugin.yml,
// plugin.toml, or a [tool.rag2f.plugin] section in project.toml).
//
// When both sources provide the same id, the entry point wins and the
// filesystem candidate is reported as shadowed. Two candidates with the same
// id from the same source make discovery fail.
package plugins

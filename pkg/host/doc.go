// Package host wires discovery, configuration and hooks into a running
// rag2f instance.
//
// Start is the only way to obtain a Host. It runs strictly in sequence:
// discover plugins, build the configuration (plugin defaults, host defaults,
// configuration document, environment), load and activate every enabled
// plugin in discovery order, then freeze the hook registry. Any activation
// error aborts startup; nothing is partially activated.
package host

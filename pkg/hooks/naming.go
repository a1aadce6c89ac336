package hooks

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var (
	closureSuffix = regexp.MustCompile(`\.(func|gowrap)\d+(\.\d+)*$`)
	typeParams    = regexp.MustCompile(`\[[^\]]*\]`)
)

// handlerPointer is the code address identifying a handler. Closures built
// from the same function literal share it.
func handlerPointer(h Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// qualifiedName returns the runtime name of h, e.g.
// "github.com/acme/plugin.(*Embedder).Build-fm".
func qualifiedName(h Handler) string {
	fn := runtime.FuncForPC(handlerPointer(h))
	if fn == nil {
		return ""
	}
	return fn.Name()
}

// declaredName reduces a runtime function name to the name a developer wrote:
// package path, receiver and method-value suffixes are dropped. Function
// literals have no declared name and yield "".
func declaredName(qualified string) string {
	name := qualified
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = typeParams.ReplaceAllString(name, "")
	name = strings.TrimSuffix(name, "-fm")
	if closureSuffix.MatchString(name) {
		return ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Package hooks implements priority-ordered hook pipelines.
//
// Plugins register handlers against a string identifier through a Registrar
// while the host activates them. Once activation finishes, the Registry is
// frozen into immutable Pipelines and a Dispatcher threads a payload through
// every handler of a pipeline in order:
//
//	priority descending, then registration sequence ascending
//
// Each handler receives the previous handler's result. A failing handler
// aborts the pipeline and the caller receives a HOOK_EXECUTION_FAILED error.
package hooks

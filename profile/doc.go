// Package profile starts optional runtime profiling of the kay command.
//
// Profiling is compiled in only with the "pprof" build tag, which links
// [github.com/pkg/profile] and registers the [net/http/pprof] handlers.
// Without the tag [Modes] is empty and [Profiler.Start] does nothing.
//
//	go build -tags pprof .
//	./kay --pprof-mode cpu run fib.kay
//	go tool pprof ./kay ~/.cache/kay/pprof/cpu.pprof
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, trace.out)
// and written to [Profiler.Dir].
package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`

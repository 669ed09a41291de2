package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes a profiling session. The zero value profiles nothing.
type Profiler struct {
	// Mode is one of [Modes]; empty disables profiling.
	Mode string
	// Dir receives the profile files. Empty uses the working directory.
	Dir string
	// Quiet suppresses the start and stop messages of the profiler.
	Quiet bool
}

// Start begins profiling. The returned Stopper is always safe to call, also
// when profiling is disabled or Mode is unknown.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return nop{}
	}

	return start(p)
}

// Enabled reports whether mode names a supported profile.
func Enabled(mode string) bool {
	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}

	return false
}

type nop struct{}

func (nop) Stop() {}

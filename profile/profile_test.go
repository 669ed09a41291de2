package profile

import "testing"

func TestProfiler_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Profiler
	}{
		{"zero", Profiler{}},
		{"unknown_mode", Profiler{Mode: "bogus", Dir: t.TempDir(), Quiet: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := tt.p.Start()
			if s == nil {
				t.Fatal("Start returned nil")
			}

			s.Stop()
		})
	}

	if Enabled("bogus") || Enabled("") {
		t.Error("Enabled accepted an unknown mode")
	}
}

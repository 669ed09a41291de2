package cli

import (
	"testing"

	"github.com/ardnew/kay/log"
)

func TestLogConfig_Scan(t *testing.T) {
	t.Cleanup(func() {
		log.Config(
			log.WithLevel(log.DefaultLevel),
			log.WithFormat(log.DefaultFormat),
			log.WithCaller(log.DefaultCaller),
			log.WithPretty(log.DefaultPretty))
	})

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate_values",
			args: []string{"run", "--log-level", "debug", "--log-format", "json", "a.kay"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "assigned_values",
			args: []string{"--log-level=trace", "--log-caller", "--no-log-pretty"},
			want: logConfig{Level: "trace", Caller: true},
		},
		{
			name: "assigned_bools",
			args: []string{"--log-pretty=false", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "value_looks_like_flag",
			args: []string{"--log-level", "--store", "x"},
			want: logConfig{Pretty: true},
		},
		{
			name: "after_terminator",
			args: []string{"--", "--log-level=error"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, f, tt.want)
			}
		})
	}

	f := logConfig{}
	f.scan([]string{"--log-level=error"})

	if got := log.Default().Level(); got != log.LevelError {
		t.Errorf("default logger level = %v, want %v", got, log.LevelError)
	}
}

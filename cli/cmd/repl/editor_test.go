package repl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/kay/log"
)

func TestEditCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		scratch string
		answers string
		want    string
		wantErr error
	}{
		{"valid", "x = 1\nprint x\n", "", "x = 1\nprint x\n", nil},
		{"cleared", "  \n", "", "", nil},
		{"declined", "x = ", "n\n", "", ErrEditDeclined},
		{"retry_then_eof", "x = ", "y\n", "", ErrEditDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer

			// "true" leaves the buffer as written.
			cmd := &editCommand{
				ctx:     t.Context(),
				scratch: tt.scratch,
				logger:  log.Logger{},
				editor:  "true",
			}
			cmd.SetStdin(strings.NewReader(tt.answers))
			cmd.SetStdout(&stdout)
			cmd.SetStderr(&stderr)

			err := cmd.Run()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() = %v, want %v", err, tt.wantErr)
			}

			if cmd.source != tt.want {
				t.Errorf("source = %q, want %q", cmd.source, tt.want)
			}

			if tt.wantErr != nil && !strings.Contains(stderr.String(), "parse error") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}

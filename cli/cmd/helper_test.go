package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/kay/lang"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func globals(t *testing.T, withStore bool) *Globals {
	t.Helper()

	g := &Globals{MaxDepth: lang.DefaultMaxDepth, Cache: t.TempDir()}
	if withStore {
		g.Store = filepath.Join(t.TempDir(), "kay.db")
	}

	return g
}

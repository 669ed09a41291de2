//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of kay embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text, the default store
	// file name and the environment variable prefix.
	Name = "kay"
	// Description is the one-line summary shown in help output.
	Description = "A small interpreted scripting language"
)

// AuthorInfo identifies an author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

// Package cmd implements the kay subcommands.
//
// Every command runs against a [Session] opened from the global flags in
// [Globals]: an in-memory environment, optionally loaded from and flushed to
// a SQLite store, and an interpreter bound to it.
package cmd

import (
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/pkg"
)

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"

	// MaxDepthIdentifier is the kong variable identifier containing the
	// default parser nesting limit.
	MaxDepthIdentifier = "maxDepth"

	// PathEnvIdentifier is the kong variable identifier naming the script
	// search path environment variable.
	PathEnvIdentifier = "pathEnv"
)

// Vars returns the kong variables referenced by the command structs.
func Vars(configFile, cacheDir string) kong.Vars {
	return kong.Vars{
		ConfigIdentifier:   configFile,
		CacheIdentifier:    cacheDir,
		MaxDepthIdentifier: strconv.Itoa(lang.DefaultMaxDepth),
		PathEnvIdentifier:  "$" + pkg.EnvVar("path"),
	}
}

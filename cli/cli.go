package cli

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/kay/cli/cmd"
	"github.com/ardnew/kay/pkg"
)

// CLI is the top-level command-line interface for kay.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Globals cmd.Globals `embed:""`

	Repl cmd.Repl `cmd:"" default:"1" help:"Start an interactive session"`
	Run  cmd.Run  `cmd:""             help:"Run script files against one environment"`
	AST  cmd.AST  `cmd:""             help:"Print the syntax tree of a script"         name:"ast"`
	Exec cmd.Exec `cmd:""             help:"Evaluate a syntax tree written by ast"`
	Env  cmd.Env  `cmd:""             help:"Print the bindings kept in the store"`
	Init cmd.Init `cmd:""             help:"Write the configuration file"`

	Version kong.VersionFlag `help:"Print the version and exit" short:"V"`
}

// Run executes the kay CLI with the given context and arguments. The exit
// function is called with the exit code when kong terminates early, such as
// after printing help.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	return run(ctx, exit, os.Stdout, args)
}

func run(ctx context.Context, exit func(code int), stdout io.Writer, args []string) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	yamlPath := configPath(baseConfig + ".yaml")

	vars := cmd.Vars(yamlPath, pkg.CacheDir()).
		CloneWith(kong.Vars{"version": pkg.Name + " " + pkg.Version}).
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdout, os.Stderr),
		kong.ExplicitGroups([]kong.Group{cli.Log.group(), cli.Pprof.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.BindTo(stdout, (*io.Writer)(nil)),
		kong.Bind(&cli.Globals),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolveYAML(ctx), yamlPath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// No-op unless built with the pprof tag and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}

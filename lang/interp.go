package lang

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/kay/log"
)

// Option configures parsing, evaluation and the [Interpreter].
type Option func(*options)

type options struct {
	env      Environment
	out      io.Writer
	logger   log.Logger
	maxDepth int
}

func makeOptions(opts ...Option) options {
	cfg := options{
		out:      os.Stdout,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithEnvironment sets the environment statements run against. By default an
// [Interpreter] creates an empty [Memory].
func WithEnvironment(env Environment) Option {
	return func(o *options) { o.env = env }
}

// WithOutput sets the writer print statements write to. The default is
// [os.Stdout].
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMaxDepth bounds nesting while parsing. Zero or less disables the check.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// Interpreter ties the lexer, parser and evaluator to one [Environment].
type Interpreter struct {
	env    Environment
	eval   *Evaluator
	opts   []Option
	logger log.Logger
}

// New returns an interpreter configured by opts.
func New(opts ...Option) *Interpreter {
	cfg := makeOptions(opts...)
	if cfg.env == nil {
		cfg.env = NewMemory()
	}

	return &Interpreter{
		env:    cfg.env,
		eval:   &Evaluator{out: cfg.out, logger: cfg.logger},
		opts:   opts,
		logger: cfg.logger,
	}
}

// Environment returns the environment the interpreter runs against.
func (it *Interpreter) Environment() Environment { return it.env }

// Parse parses src with the interpreter's options.
func (it *Interpreter) Parse(ctx context.Context, src string) (Program, error) {
	return ParseString(ctx, src, it.opts...)
}

// Exec parses all of src and then runs it. A parse error means nothing runs.
func (it *Interpreter) Exec(ctx context.Context, src string) (Value, error) {
	prog, err := it.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	return it.Run(ctx, prog)
}

// ExecReader reads, parses and runs the program in r. Parsed programs are
// cached, see [ParseReader].
func (it *Interpreter) ExecReader(ctx context.Context, r io.Reader) (Value, error) {
	prog, err := ParseReader(ctx, r, it.opts...)
	if err != nil {
		return nil, err
	}

	return it.Run(ctx, prog)
}

// Run evaluates the statements of prog in order and returns the value of the
// last one, or [Unit] for an empty program. The first runtime error stops the
// run; effects of the statements before it remain.
func (it *Interpreter) Run(ctx context.Context, prog Program) (Value, error) {
	var result Value = Unit{}

	for i, stmt := range prog {
		it.logger.TraceContext(ctx, "statement",
			slog.Int("index", i),
			slog.String("pos", stmt.Pos().String()),
			slog.String("source", stmt.String()))

		v, err := it.eval.Evaluate(ctx, stmt, it.env)
		if err != nil {
			return nil, err
		}

		result = v
	}

	return result, nil
}

// Eval evaluates a single node.
func (it *Interpreter) Eval(ctx context.Context, n Node) (Value, error) {
	return it.eval.Evaluate(ctx, n, it.env)
}

package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parsed programs keyed by source and options hash.
//
//nolint:gochecknoglobals
var globalCache sync.Map

// state tracks the single parse of one cached source.
type state struct {
	once sync.Once
	prog Program
	err  error
}

// hashOptions encodes the options that affect parsing using gob and hashes
// them with xxh3.
func hashOptions(cfg options) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(cfg.maxDepth)

	return xxh3.Hash(buf.Bytes())
}

// ParseReader reads all of r and parses it. Programs are cached by content,
// so reading the same source again skips lexing and parsing.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (Program, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	cfg := makeOptions(opts...)

	cfg.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true))

	return parseCached(ctx, cfg, string(data), opts...)
}

func parseCached(
	ctx context.Context,
	cfg options,
	source string,
	opts ...Option,
) (Program, error) {
	sourceHash := xxh3.HashString(source)
	optsHash := hashOptions(cfg)
	key := strconv.FormatUint(sourceHash^optsHash, 36)

	value, hit := globalCache.LoadOrStore(key, new(state))

	entry, ok := value.(*state)
	if !ok {
		return nil, ErrReadInput.
			With(slog.String("issue", "invalid cache entry type"))
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit))

	entry.once.Do(func() {
		entry.prog, entry.err = ParseString(ctx, source, opts...)
	})

	if entry.err != nil {
		return nil, entry.err
	}

	return slices.Clone(entry.prog), nil
}

// ClearCache removes all cached programs.
func ClearCache() {
	globalCache.Clear()
}

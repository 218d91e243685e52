package extract

import (
	"context"
	"io"
	"os"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// Strategy names an extraction implementation.
type Strategy string

const (
	// StrategyAST parses source into a syntax tree. This is the default.
	StrategyAST Strategy = "ast"

	// StrategyLines is the line and indentation heuristic fallback.
	StrategyLines Strategy = "lines"
)

// Strategies lists all valid strategies.
var Strategies = []Strategy{StrategyAST, StrategyLines}

// Extractor turns the source text of one module into its module-level
// definitions.
//
// Returned definitions have no ID or ModuleID; see [Assign].
type Extractor interface {
	Strategy() Strategy
	Extract(ctx context.Context, src []byte) ([]Definition, error)
}

// New returns the extractor for the given strategy.
func New(s Strategy) (Extractor, error) {
	switch s {
	case StrategyAST, "":
		return NewTreeSitter(), nil
	case StrategyLines:
		return NewLines(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown extraction strategy %q (must be ast or lines)", s)
}

// ValidateStrategy checks that s names a known strategy.
func ValidateStrategy(s string) error {
	names := make([]string, len(Strategies))
	for i, st := range Strategies {
		names[i] = string(st)
	}
	return errors.ValidateOneOf(errors.ErrCodeInvalidStrategy, "strategy", s, names...)
}

// ReadModule reads the full source text of mod. The file is closed on every
// return path. Failures carry FILE_ACCESS.
func ReadModule(mod source.Module) ([]byte, error) {
	f, err := os.Open(mod.FilePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileAccess, err, "open %s", mod.FilePath)
	}
	defer f.Close()

	src, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileAccess, err, "read %s", mod.FilePath)
	}
	return src, nil
}

// Assign stamps fresh ids and the owning module id onto defs in place.
func Assign(defs []Definition, moduleID string) {
	for i := range defs {
		defs[i].ID = source.NewID()
		defs[i].ModuleID = moduleID
	}
}

// Module reads and extracts one module, assigning ids.
func Module(ctx context.Context, ex Extractor, mod source.Module) ([]Definition, error) {
	src, err := ReadModule(mod)
	if err != nil {
		return nil, err
	}
	defs, err := ex.Extract(ctx, src)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeParse, err, "parse %s", mod.FilePath)
		}
		return nil, err
	}
	Assign(defs, mod.ID)
	return defs, nil
}

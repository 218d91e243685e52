// Package pipeline runs graphit's analysis from source tree to diagrams.
//
// # Stages
//
//  1. Discover: find the Python modules inside the configured scope
//  2. Extract: parse every module into its module-level definitions
//  3. Resolve: map call names onto definitions (a barrier over all modules)
//  4. Build: expand one call graph per root definition
//  5. Emit: lay out each graph, render diagrams and write tables
//
// Extraction and everything after resolution run on a bounded worker pool.
// The definition set and name table are read-only once resolution is done,
// so per-root work needs no coordination.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ReferenceDir: "./myproject",
//	    Formats:      []string{"svg", "json"},
//	})
//
// # Diagnostics
//
// Recoverable problems (unreadable files, syntax errors, duplicate handles,
// truncated expansions, failed renders) never abort a run. They are logged
// at warn level and collected as [Diagnostic] values on the result. A run
// fails only when options are invalid, no modules are found, the output
// directory cannot be created, or the context is cancelled.
package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/extract"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/render/nodelink"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultOutputDir is where run directories are created.
	DefaultOutputDir = "output"

	// DefaultStrategy is the extraction strategy.
	DefaultStrategy = extract.StrategyAST

	// DefaultMaxDepth is the deepest generation expanded.
	DefaultMaxDepth = callgraph.DefaultMaxDepth

	// DefaultMaxNodes caps the nodes of one graph.
	DefaultMaxNodes = callgraph.DefaultMaxNodes
)

// Format constants for output formats.
const (
	FormatSVG  = string(nodelink.FormatSVG)
	FormatPNG  = string(nodelink.FormatPNG)
	FormatPDF  = string(nodelink.FormatPDF)
	FormatDOT  = string(nodelink.FormatDOT)
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Discovery
	ReferenceDir     string   `json:"reference_dir" toml:"reference_directory"`
	Scope            []string `json:"scope,omitempty" toml:"scope"`
	Ignore           []string `json:"ignore,omitempty" toml:"ignore"`
	RespectGitignore bool     `json:"respect_gitignore,omitempty" toml:"respect_gitignore"`

	// Extraction
	Strategy string `json:"strategy,omitempty" toml:"strategy"`
	Workers  int    `json:"workers,omitempty" toml:"workers"`

	// Expansion
	MaxDepth int `json:"max_depth,omitempty" toml:"max_depth"`
	MaxNodes int `json:"max_nodes,omitempty" toml:"max_nodes"`

	// Output
	OutputDir string   `json:"output_dir,omitempty" toml:"output"`
	Formats   []string `json:"formats,omitempty" toml:"formats"`
	NoRender  bool     `json:"no_render,omitempty" toml:"no_render"`
	Palette   []string `json:"palette,omitempty" toml:"palette"`

	// Runtime options (not serialized)
	Logger *log.Logger      `json:"-" toml:"-"`
	Render nodelink.Options `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks every field and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ReferenceDir == "" {
		o.ReferenceDir = "."
	}
	if err := errors.ValidateDirectory(o.ReferenceDir); err != nil {
		return err
	}
	for _, s := range o.Scope {
		if err := errors.ValidateScopeEntry(s); err != nil {
			return err
		}
	}
	if o.Ignore == nil {
		o.Ignore = append([]string(nil), source.DefaultIgnore...)
	}

	if o.Strategy == "" {
		o.Strategy = string(DefaultStrategy)
	}
	if err := extract.ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidDepth, "max_depth must be positive, got %d", o.MaxDepth)
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if err := errors.ValidatePositive("max_nodes", o.MaxNodes); err != nil {
		return err
	}

	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.validated = true
	return nil
}

// SourceScope returns the discovery scope.
func (o *Options) SourceScope() source.Scope {
	return source.Scope{Include: o.Scope, Ignore: o.Ignore, RespectGitignore: o.RespectGitignore}
}

// GraphOptions returns the expansion limits.
func (o *Options) GraphOptions() callgraph.Options {
	return callgraph.Options{MaxDepth: o.MaxDepth, MaxNodes: o.MaxNodes}
}

// DiagramFormats returns the requested diagram formats, empty when
// rendering is disabled.
func (o *Options) DiagramFormats() []nodelink.Format {
	if o.NoRender {
		return nil
	}
	var out []nodelink.Format
	for _, f := range o.Formats {
		if f != FormatJSON {
			out = append(out, nodelink.Format(f))
		}
	}
	return out
}

// WantsJSON reports whether graph documents were requested.
func (o *Options) WantsJSON() bool {
	for _, f := range o.Formats {
		if f == FormatJSON {
			return true
		}
	}
	return false
}

// =============================================================================
// Results
// =============================================================================

// Diagnostic is a recoverable problem found during a run.
type Diagnostic struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Module  string      `json:"module,omitempty"`  // file path
	Handle  string      `json:"handle,omitempty"`  // definition handle
	ID      string      `json:"id,omitempty"`      // definition id
	Address string      `json:"address,omitempty"` // graph address
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// keyvals returns the structured logging fields of d.
func (d Diagnostic) keyvals() []any {
	kv := []any{"code", string(d.Code)}
	if d.Module != "" {
		kv = append(kv, "module", d.Module)
	}
	if d.Handle != "" {
		kv = append(kv, "handle", d.Handle)
	}
	if d.ID != "" {
		kv = append(kv, "id", d.ID)
	}
	if d.Address != "" {
		kv = append(kv, "address", d.Address)
	}
	return kv
}

// Stats contains run counters and stage timings.
type Stats struct {
	Modules     int
	Definitions int
	Edges       int
	Roots       int
	Graphs      int
	Nodes       int
	CacheHits   int
	Duplicates  int
	Unresolved  int // call names dropped during resolution
	Overruns    int
	FileErrors  int
	ParseErrors int

	DiscoverTime time.Duration
	ExtractTime  time.Duration
	ResolveTime  time.Duration
	BuildTime    time.Duration
	EmitTime     time.Duration
}

// Analysis is the resolved codebase: everything up to, but not including,
// graph expansion.
type Analysis struct {
	Modules     []source.Module
	Resolution  *resolve.Resolution
	Catalog     *layout.Catalog
	Roots       []string
	Diagnostics []Diagnostic
	Stats       Stats
}

// Definitions returns the resolved definitions in discovery order.
func (a *Analysis) Definitions() []resolve.ResolvedDefinition {
	return a.Resolution.Definitions
}

// Result contains the outputs of a full run.
type Result struct {
	*Analysis

	// OutputDir is the run directory, empty when nothing was written.
	OutputDir string

	// Graphs and Layouts are in root order.
	Graphs  []*callgraph.Graph
	Layouts []*layout.Layout

	// Files lists every file written, tables first.
	Files []string
}

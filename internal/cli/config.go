package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/pkg/cache"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/pipeline"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// config is the merged configuration of one command invocation: pipeline
// options plus the CLI-only cache settings.
type config struct {
	pipeline.Options

	Cache     string `toml:"cache"`
	RedisAddr string `toml:"redis_addr"`

	// file is the project file that was loaded, empty when none was found.
	file string `toml:"-"`
}

// analysisFlags holds the raw flag values shared by every command that
// runs an analysis.
type analysisFlags struct {
	referenceDir     string
	configPath       string
	scope            []string
	ignore           []string
	output           string
	strategy         string
	formats          string
	maxDepth         int
	maxNodes         int
	workers          int
	cache            string
	redisAddr        string
	noRender         bool
	respectGitignore bool
}

// addAnalysisFlags registers the shared analysis flags on cmd.
func addAnalysisFlags(cmd *cobra.Command, f *analysisFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.referenceDir, "reference-directory", "r", ".", "root of the Python codebase")
	fs.StringVar(&f.configPath, "config", "", "project file (default: <reference-directory>/"+configFile+")")
	fs.StringArrayVarP(&f.scope, "scope", "s", []string{"."}, "directory, file or pattern to analyze (repeatable)")
	fs.StringArrayVarP(&f.ignore, "ignore", "i", source.DefaultIgnore, "pattern to exclude (repeatable)")
	fs.StringVarP(&f.output, "output", "o", "./"+pipeline.DefaultOutputDir, "directory for run outputs")
	fs.StringVar(&f.strategy, "strategy", string(pipeline.DefaultStrategy), "extraction strategy: ast, lines")
	fs.StringVarP(&f.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, pdf, dot, json (comma-separated)")
	fs.IntVar(&f.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "deepest generation to expand")
	fs.IntVar(&f.maxNodes, "max-nodes", pipeline.DefaultMaxNodes, "node cap per graph")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers (default: number of CPUs)")
	fs.StringVar(&f.cache, "cache", string(cache.BackendNone), "extraction cache: none, file, redis")
	fs.StringVar(&f.redisAddr, "redis-addr", cache.DefaultRedisAddr, "redis address for --cache redis")
	fs.BoolVar(&f.noRender, "no-render", false, "skip diagrams, write tables only")
	fs.BoolVar(&f.respectGitignore, "respect-gitignore", false, "also exclude paths matched by .gitignore")

	_ = cmd.RegisterFlagCompletionFunc("strategy", fixedCompletion("ast", "lines"))
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion("svg", "png", "pdf", "dot", "json"))
	_ = cmd.RegisterFlagCompletionFunc("cache", fixedCompletion(cacheBackends()...))
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// resolveConfig merges defaults, the project file and explicitly set
// flags, in increasing order of precedence. A positional argument names
// the reference directory unless -r was given.
func resolveConfig(cmd *cobra.Command, f *analysisFlags, args []string) (*config, error) {
	changed := cmd.Flags().Changed

	dir := f.referenceDir
	dirGiven := changed("reference-directory")
	if len(args) > 0 && !dirGiven {
		dir = args[0]
		dirGiven = true
	}

	cfg := &config{}
	path := f.configPath
	if path == "" {
		path = filepath.Join(dir, configFile)
	}
	if err := loadConfigFile(path, cfg, f.configPath != ""); err != nil {
		return nil, err
	}

	switch {
	case dirGiven:
		cfg.ReferenceDir = dir
	case cfg.ReferenceDir != "" && cfg.file != "" && !filepath.IsAbs(cfg.ReferenceDir):
		cfg.ReferenceDir = filepath.Join(filepath.Dir(cfg.file), cfg.ReferenceDir)
	case cfg.ReferenceDir == "":
		cfg.ReferenceDir = dir
	}

	if changed("scope") {
		cfg.Scope = f.scope
	}
	if changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if changed("output") || cfg.OutputDir == "" {
		cfg.OutputDir = f.output
	}
	if changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if changed("format") {
		cfg.Formats = parseFormats(f.formats)
	}
	if changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if changed("max-nodes") {
		cfg.MaxNodes = f.maxNodes
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("cache") || cfg.Cache == "" {
		cfg.Cache = strings.ToLower(f.cache)
	}
	if changed("redis-addr") || cfg.RedisAddr == "" {
		cfg.RedisAddr = f.redisAddr
	}
	if changed("no-render") {
		cfg.NoRender = f.noRender
	}
	if changed("respect-gitignore") {
		cfg.RespectGitignore = f.respectGitignore
	}

	if err := errors.ValidateOneOf(errors.ErrCodeInvalidCache, "cache", cfg.Cache, cacheBackends()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes the TOML project file at path into cfg. A missing
// file is only an error when it was asked for explicitly.
func loadConfigFile(path string, cfg *config, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "config file %s", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s: unknown key %q", path, keys[0].String())
	}
	cfg.file = path
	return nil
}

func cacheBackends() []string {
	out := make([]string, len(cache.Backends))
	for i, b := range cache.Backends {
		out[i] = string(b)
	}
	return out
}

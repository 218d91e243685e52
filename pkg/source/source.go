// Package source discovers the Python modules of a project.
//
// Discovery walks a reference directory and yields one [Module] per source
// file that lies inside the include scope and outside the ignore scope. Scope
// entries use gitignore pattern syntax, so "venv", "tests/" and "*_pb2.py"
// all behave the way they would in a .gitignore file.
//
// Every Module carries an import path derived from its location relative to
// the reference directory: pkg/sub/mod.py becomes pkg.sub.mod.
//
// The analysis core never touches the filesystem layout itself; it consumes
// the ordered Module list produced here and reads each file exactly once.
package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// Extension is the file extension of discovered source files.
const Extension = ".py"

// DefaultIgnore is the ignore scope used when none is given.
var DefaultIgnore = []string{"venv", "tests"}

// Module is one discovered source file.
type Module struct {
	ID         string `json:"id"`
	FilePath   string `json:"file_path"`
	ImportPath string `json:"import_path"`
}

// Scope selects which files under the reference directory are analyzed.
type Scope struct {
	// Include lists directories, files or patterns to analyze. Empty or "."
	// selects the whole tree.
	Include []string

	// Ignore lists patterns that are excluded even when included.
	Ignore []string

	// RespectGitignore additionally applies the reference directory's
	// .gitignore file.
	RespectGitignore bool
}

// NewID returns a fresh random identifier for a Module or Definition.
func NewID() string {
	return uuid.NewString()
}

// Discover walks root and returns the modules in scope, sorted by file path.
// Returns NO_MODULES when nothing matches.
func Discover(ctx context.Context, root string, scope Scope) ([]Module, error) {
	if err := errors.ValidateDirectory(root); err != nil {
		return nil, err
	}
	for _, e := range append(append([]string{}, scope.Include...), scope.Ignore...) {
		if err := errors.ValidateScopeEntry(e); err != nil {
			return nil, err
		}
	}

	m, err := newMatcher(root, scope)
	if err != nil {
		return nil, err
	}

	var modules []Module
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" || m.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(rel, Extension) || m.ignored(rel) || !m.included(rel) {
			return nil
		}

		importPath, ipErr := ImportPath(root, path)
		if ipErr != nil {
			return nil
		}
		modules = append(modules, Module{
			ID:         NewID(),
			FilePath:   path,
			ImportPath: importPath,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(modules) == 0 {
		return nil, errors.New(errors.ErrCodeNoModules, "no %s files found under %s", Extension, root)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].FilePath < modules[j].FilePath
	})
	return modules, nil
}

// ImportPath converts a file path into a dotted module import path relative
// to root.
func ImportPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "relative path of %s", path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeInvalidPath, "%s is outside %s", path, root)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), Extension)
	return strings.ReplaceAll(rel, "/", "."), nil
}

// =============================================================================
// Scope Matching
// =============================================================================

type matcher struct {
	all       bool
	prefixes  []string
	include   *ignore.GitIgnore
	ignore    *ignore.GitIgnore
	gitignore *ignore.GitIgnore
}

func newMatcher(root string, scope Scope) (*matcher, error) {
	m := &matcher{}

	var patterns []string
	for _, e := range scope.Include {
		e = strings.TrimSuffix(filepath.ToSlash(strings.TrimSpace(e)), "/")
		e = strings.TrimPrefix(e, "./")
		if e == "" || e == "." {
			m.all = true
			continue
		}
		m.prefixes = append(m.prefixes, e)
		patterns = append(patterns, e)
	}
	if len(scope.Include) == 0 {
		m.all = true
	}
	if len(patterns) > 0 {
		m.include = ignore.CompileIgnoreLines(patterns...)
	}
	if len(scope.Ignore) > 0 {
		m.ignore = ignore.CompileIgnoreLines(scope.Ignore...)
	}

	if scope.RespectGitignore {
		path := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(path); err == nil {
			gi, err := ignore.CompileIgnoreFile(path)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeFileAccess, err, "read %s", path)
			}
			m.gitignore = gi
		}
	}
	return m, nil
}

func (m *matcher) ignored(rel string) bool {
	if m.ignore != nil && m.ignore.MatchesPath(rel) {
		return true
	}
	return m.gitignore != nil && m.gitignore.MatchesPath(rel)
}

func (m *matcher) included(rel string) bool {
	if m.all {
		return true
	}
	for _, p := range m.prefixes {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return m.include != nil && m.include.MatchesPath(rel)
}

// Filter applies a scope to individual paths under a root, for callers that
// see paths one at a time instead of walking the tree.
type Filter struct {
	root string
	m    *matcher
}

// NewFilter compiles scope for paths under root.
func NewFilter(root string, scope Scope) (*Filter, error) {
	m, err := newMatcher(root, scope)
	if err != nil {
		return nil, err
	}
	return &Filter{root: root, m: m}, nil
}

func (f *Filter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SkipsDir reports whether discovery never descends into dir.
func (f *Filter) SkipsDir(dir string) bool {
	rel, ok := f.rel(dir)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return filepath.Base(dir) == ".git" || f.m.ignored(rel)
}

// Selects reports whether path would be discovered as a module.
func (f *Filter) Selects(path string) bool {
	rel, ok := f.rel(path)
	if !ok || !strings.HasSuffix(rel, Extension) {
		return false
	}
	return !f.m.ignored(rel) && f.m.included(rel)
}

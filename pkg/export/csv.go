package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// File names of the per-run tables.
const (
	ModuleTable     = "graphit_module_meta_data.csv"
	FunctionTable   = "graphit_function_meta_data.csv"
	DependencyTable = "graphit_function_dependency_meta_data.csv"
)

// Column layouts.
var (
	ModuleColumns = []string{
		"unique_module_reference_id",
		"file_path",
		"import_path",
	}
	FunctionColumns = []string{
		"unique_function_reference_id",
		"function_handle",
		"kind",
		"source_module_reference_id",
		"start_line",
		"end_line",
		"n_dependency_functions",
	}
	DependencyColumns = []string{
		"unique_function_reference_id",
		"function_dependency_reference_id",
		"function_dependency_index",
	}
	GraphColumns = []string{
		"target_function_dependency_index",
		"target_function_generation",
		"target_function_graph_index",
		"graph_plot_x_coordinate",
		"graph_plot_y_coordinate",
		"target_function_handle",
		"target_function_file_path",
		"target_function_module_import_path",
		"target_function_import_path",
		"color",
		"truncated",
	}
)

// GraphTable returns the file name of the table for the graph rooted at rootID.
func GraphTable(rootID string) string {
	return "graphit_" + rootID + "_graph_meta_data.csv"
}

// WriteModules writes the module table.
func WriteModules(w io.Writer, modules []source.Module) error {
	rows := make([][]string, len(modules))
	for i, m := range modules {
		rows[i] = []string{m.ID, m.FilePath, m.ImportPath}
	}
	return writeTable(w, ModuleColumns, rows)
}

// WriteFunctions writes the definition table. n_dependency_functions counts
// resolved call edges.
func WriteFunctions(w io.Writer, defs []resolve.ResolvedDefinition) error {
	rows := make([][]string, len(defs))
	for i, d := range defs {
		rows[i] = []string{
			d.ID,
			d.Handle,
			string(d.Kind),
			d.ModuleID,
			strconv.Itoa(d.Start.Line),
			strconv.Itoa(d.End.Line),
			strconv.Itoa(len(d.Edges)),
		}
	}
	return writeTable(w, FunctionColumns, rows)
}

// WriteDependencies writes one row per resolved call edge, in call order.
func WriteDependencies(w io.Writer, defs []resolve.ResolvedDefinition) error {
	var rows [][]string
	for _, d := range defs {
		for j, e := range d.Edges {
			rows = append(rows, []string{d.ID, e.TargetID, strconv.Itoa(j)})
		}
	}
	return writeTable(w, DependencyColumns, rows)
}

// WriteGraph writes the positioned nodes of one graph in address order.
func WriteGraph(w io.Writer, l *layout.Layout) error {
	rows := make([][]string, len(l.Nodes))
	for i, n := range l.Nodes {
		rows[i] = []string{
			strconv.Itoa(n.DependencyIndex),
			strconv.Itoa(n.Generation),
			n.Address.String(),
			strconv.Itoa(n.X),
			strconv.Itoa(n.Y),
			n.Handle,
			n.FilePath,
			n.Module,
			n.ImportPath,
			n.Color,
			strconv.FormatBool(n.Truncated),
		}
	}
	return writeTable(w, GraphColumns, rows)
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "write header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "write rows")
	}
	return nil
}

// =============================================================================
// Files
// =============================================================================

// Tables bundles everything written once per run.
type Tables struct {
	Modules     []source.Module
	Definitions []resolve.ResolvedDefinition
}

// WriteTables writes the module, definition and dependency tables into dir
// and returns the paths written.
func WriteTables(dir string, t Tables) ([]string, error) {
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ModuleTable, func(w io.Writer) error { return WriteModules(w, t.Modules) }},
		{FunctionTable, func(w io.Writer) error { return WriteFunctions(w, t.Definitions) }},
		{DependencyTable, func(w io.Writer) error { return WriteDependencies(w, t.Definitions) }},
	}

	var paths []string
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportGraph writes the graph table for l into dir and returns its path.
func ExportGraph(dir string, l *layout.Layout) (string, error) {
	path := filepath.Join(dir, GraphTable(l.RootID))
	return path, writeFile(path, func(w io.Writer) error { return WriteGraph(w, l) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "close %s", path)
	}
	return nil
}

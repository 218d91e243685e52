// Package resolve maps raw call-target names onto known definitions.
//
// Resolution is purely name based. A [Table] is built once from every
// extracted definition and is read-only afterwards, so one table can be
// shared by any number of goroutines.
//
// Handles are assumed unique across the codebase. When two definitions share
// a handle the first one in input order keeps the name and every later one is
// reported as a [Duplicate]. Calls to that handle always resolve to the
// first definition.
//
// Names that match no definition (builtins, library functions, dynamic
// dispatch) are dropped from the resolved edge list. The number dropped is
// kept on each [ResolvedDefinition] for reporting.
package resolve

import (
	"github.com/SebastianScherer88/graphit/pkg/extract"
)

// Duplicate records a definition whose handle was already taken.
type Duplicate struct {
	Handle          string `json:"handle"`
	KeptID          string `json:"kept_id"`
	KeptModuleID    string `json:"kept_module_id"`
	DroppedID       string `json:"dropped_id"`
	DroppedModuleID string `json:"dropped_module_id"`
}

// Table is an immutable handle to definition id mapping.
type Table struct {
	ids        map[string]string
	duplicates []Duplicate
}

// NewTable builds a table from defs. The first definition of each handle wins.
func NewTable(defs []extract.Definition) *Table {
	t := &Table{ids: make(map[string]string, len(defs))}
	owner := make(map[string]extract.Definition, len(defs))
	for _, d := range defs {
		if kept, ok := owner[d.Handle]; ok {
			t.duplicates = append(t.duplicates, Duplicate{
				Handle:          d.Handle,
				KeptID:          kept.ID,
				KeptModuleID:    kept.ModuleID,
				DroppedID:       d.ID,
				DroppedModuleID: d.ModuleID,
			})
			continue
		}
		owner[d.Handle] = d
		t.ids[d.Handle] = d.ID
	}
	return t
}

// Lookup returns the definition id registered for name.
func (t *Table) Lookup(name string) (string, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Len returns the number of distinct handles.
func (t *Table) Len() int { return len(t.ids) }

// Duplicates returns the handle collisions found while building the table.
func (t *Table) Duplicates() []Duplicate {
	out := make([]Duplicate, len(t.duplicates))
	copy(out, t.duplicates)
	return out
}

// Edge is a resolved call from one definition to another.
type Edge struct {
	TargetID string             `json:"target_id"`
	Call     extract.CallTarget `json:"call"`
}

// ResolvedDefinition is a definition with its calls mapped to definition ids.
type ResolvedDefinition struct {
	extract.Definition
	Edges      []Edge `json:"edges"`
	Unresolved int    `json:"unresolved"`
}

// EdgeIDs returns the target ids of d's edges in source order.
func (d ResolvedDefinition) EdgeIDs() []string {
	ids := make([]string, len(d.Edges))
	for i, e := range d.Edges {
		ids[i] = e.TargetID
	}
	return ids
}

// Definition resolves the calls of one definition against t. Matched calls
// keep their order and multiplicity; unmatched calls are dropped.
func (t *Table) Definition(d extract.Definition) ResolvedDefinition {
	rd := ResolvedDefinition{Definition: d}
	for _, c := range d.Calls {
		id, ok := t.Lookup(c.Name)
		if !ok {
			rd.Unresolved++
			continue
		}
		rd.Edges = append(rd.Edges, Edge{TargetID: id, Call: c})
	}
	return rd
}

// =============================================================================
// Resolution
// =============================================================================

// Resolution is the resolved form of a whole codebase.
type Resolution struct {
	Table       *Table
	Definitions []ResolvedDefinition
	index       map[string]int
}

// Resolve builds a table from defs and resolves every definition against it.
// Output order matches input order.
func Resolve(defs []extract.Definition) *Resolution {
	return With(NewTable(defs), defs)
}

// With resolves defs against an existing table.
func With(t *Table, defs []extract.Definition) *Resolution {
	r := &Resolution{
		Table:       t,
		Definitions: make([]ResolvedDefinition, len(defs)),
		index:       make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		r.Definitions[i] = t.Definition(d)
		r.index[d.ID] = i
	}
	return r
}

// Get returns the resolved definition with the given id.
func (r *Resolution) Get(id string) (ResolvedDefinition, bool) {
	i, ok := r.index[id]
	if !ok {
		return ResolvedDefinition{}, false
	}
	return r.Definitions[i], true
}

// Edges returns the ordered call-edge target ids of definition id.
func (r *Resolution) Edges(id string) []string {
	d, ok := r.Get(id)
	if !ok {
		return nil
	}
	return d.EdgeIDs()
}

// ByHandle returns the definition that owns handle in the table.
func (r *Resolution) ByHandle(handle string) (ResolvedDefinition, bool) {
	id, ok := r.Table.Lookup(handle)
	if !ok {
		return ResolvedDefinition{}, false
	}
	return r.Get(id)
}

// EdgeCount returns the total number of resolved edges.
func (r *Resolution) EdgeCount() int {
	n := 0
	for _, d := range r.Definitions {
		n += len(d.Edges)
	}
	return n
}

package extract

import "fmt"

// =============================================================================
// Definitions
// =============================================================================

// Kind classifies a module-level definition.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
)

// Location is a 1-based line and 0-based column in a source file.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the location as line:column.
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Before reports whether l precedes other in source order.
func (l Location) Before(other Location) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Definition is a module-level function or class.
//
// Calls holds every call expression inside the definition, including calls
// made from nested functions, in strictly increasing source position.
// Duplicates are kept and nothing is filtered against known definitions.
type Definition struct {
	ID       string       `json:"id"`
	Handle   string       `json:"handle"`
	Kind     Kind         `json:"kind"`
	ModuleID string       `json:"module_id"`
	Start    Location     `json:"start"`
	End      Location     `json:"end"`
	Calls    []CallTarget `json:"calls"`
}

// CallNames returns the raw call-target names in source order.
func (d Definition) CallNames() []string {
	names := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		names[i] = c.Name
	}
	return names
}

// =============================================================================
// Call Targets
// =============================================================================

// CallKind distinguishes the syntactic shape of a call expression.
type CallKind string

const (
	// DirectCall is a call through a bare name: f(x).
	DirectCall CallKind = "direct"

	// MemberCall is a call through attribute access: obj.f(x). Only the
	// member name is recorded, so same-named methods on unrelated receivers
	// resolve to the same definition.
	MemberCall CallKind = "member"
)

// CallTarget is one call expression found inside a definition.
type CallTarget struct {
	Kind     CallKind `json:"kind"`
	Name     string   `json:"name"`
	Position Location `json:"position"`
}

// Direct returns a direct-name call target.
func Direct(name string, pos Location) CallTarget {
	return CallTarget{Kind: DirectCall, Name: name, Position: pos}
}

// Member returns a member-access call target for the given member name.
func Member(member string, pos Location) CallTarget {
	return CallTarget{Kind: MemberCall, Name: member, Position: pos}
}

// Package extract finds module-level definitions and their call targets in
// Python source.
//
// # Overview
//
// Two implementations of [Extractor] are available:
//
//   - [TreeSitter] parses the source into a concrete syntax tree and walks it.
//     This is the primary strategy.
//   - [Lines] is a line and indentation heuristic used when a structural
//     parse is not wanted. It is documented as a fallback and is known to
//     mis-bound definitions that do not end in a return statement.
//
// Select one with [New] using a [Strategy] from configuration. Nothing
// downstream of extraction knows which strategy produced a definition.
//
// # Definitions and Calls
//
// Only top-level functions and classes are recorded. Calls made inside nested
// functions or methods are attributed to the enclosing top-level definition.
// Each call is a [CallTarget] tagged [DirectCall] for f() or [MemberCall] for
// obj.f(). A member call keeps only the member name.
//
// Call names are not checked against known definitions here. Builtins and
// library calls are dropped later during resolution.
//
// # Errors
//
// A file that cannot be read yields FILE_ACCESS and a file that cannot be
// parsed yields PARSE_ERROR. Both are recoverable: the caller skips the module
// and continues.
package extract

// Package export writes analysis results to disk.
//
// # Tables
//
// Four kinds of CSV tables describe a run. The first three are written once
// per run:
//
//   - graphit_module_meta_data.csv: one row per discovered module
//   - graphit_function_meta_data.csv: one row per recorded definition
//   - graphit_function_dependency_meta_data.csv: one row per resolved call edge
//
// and one graphit_<root>_graph_meta_data.csv per root graph, holding the
// positioned nodes in address order.
//
// # Graph documents
//
// [WriteJSON] encodes a [layout.Layout] as an indented JSON document that
// [ReadJSON] reads back, so a graph can be re-rendered without re-analyzing
// the source tree.
//
// # Run directories
//
// [RunDir] creates a fresh output directory per run named after its start
// time, e.g. output/2024-05-01 13-45-09.
package export

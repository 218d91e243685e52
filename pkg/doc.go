// Package pkg provides the libraries behind graphit, a function-level call
// dependency mapper for Python codebases.
//
// # Overview
//
// Graphit reads a Python source tree, finds every module-level function and
// class, works out which of them call which, and draws one dependency graph
// per root definition. The pkg directory is organized by pipeline stage:
//
//  1. [source] - discover modules inside an include/ignore scope
//  2. [extract] - parse modules into definitions and call targets
//  3. [resolve] - map call names onto definitions through a name table
//  4. [callgraph] - find roots and expand one unrolled graph per root
//  5. [layout] - assign coordinates and module colors
//  6. [render] - draw layouts as SVG, PNG, PDF or DOT
//  7. [export] - write CSV tables and JSON graph documents
//
// [pipeline] runs the stages in order; [cache], [observability], [errors]
// and [buildinfo] support it.
//
// # Architecture
//
// The typical data flow through graphit:
//
//	Python source tree
//	         ↓
//	    [source] package (modules with import paths)
//	         ↓
//	    [extract] package (definitions + raw call names, one module at a time)
//	         ↓
//	    [resolve] package (resolved call edges; barrier over all modules)
//	         ↓
//	    [callgraph] package (roots, per-root expansion with addresses)
//	         ↓
//	    [layout] + [render] + [export] packages
//	         ↓
//	    CSV tables, SVG/PNG/PDF/DOT diagrams, JSON documents
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/SebastianScherer88/graphit/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil)
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    ReferenceDir: "./myproject",
//	    Formats:      []string{"svg", "json"},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println("wrote", len(res.Files), "files to", res.OutputDir)
package pkg

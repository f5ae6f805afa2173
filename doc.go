// Package arbor turns Go struct types into reusable element trees and lets
// pluggable visitors read, mutate, or transform instances by walking them.
//
// A struct type is parsed once into a tree of elements. Leaves are fields
// carrying exactly one visitor-capability marker; nodes are fields whose type
// contains a leaf at some depth. Visitors declare which markers they accept
// and are invoked only at those leaves (and, if asked, at node boundaries).
//
// # Quick Start
//
//	type Pair struct {
//	    A int `arbor:"sum"`
//	    B int `arbor:"sum"`
//	}
//
//	eng, err := engine.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sum := visitors.NewSummer("sum")
//	if err := eng.PreOrder(&Pair{A: 1, B: 2}, sum); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum.Int()) // 3
//
// # Packages
//
//   - tree: generic immutable rooted trees and their builder
//   - accessor: get/set/construct backends (reflection and reflect2 fast path)
//   - model: member classification, parsing, elements and the tree cache
//   - walker: visitor contract and the traversal engine
//   - visitors: ready-made visitors (copier, exporter, summer, validator)
//   - worker: goroutine pool running traversal jobs over many instances
//   - engine: the facade wiring all of the above together
//   - config: YAML configuration files mapped onto Options
//
// The arbor command in cmd/arbor inspects, exports and validates bundled
// sample types.
//
// # Functional Options
//
//	eng, err := engine.New(
//	    arbor.WithCacheMaxWeight(50_000),
//	    arbor.WithPolicy(arbor.Policy{InstantiateMissingNodes: true}),
//	    arbor.WithParallel(true),
//	)
//
// # Errors
//
// Failures carry one of the sentinel kinds ErrConfiguration, ErrInvalidOrder,
// ErrAccess, ErrCache and ErrUnsupportedOperation; test for them with
// errors.Is. Errors returned by visitors are passed through unchanged.
package arbor

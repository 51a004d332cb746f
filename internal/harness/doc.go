// Package harness runs resolution scenarios as executable contract tests.
//
// A scenario names a question catalog, a graph and an application, runs
// the resolver against them, and checks the result with assertions and an
// optional golden snapshot.
//
// # Scenario Format
//
// Scenarios are YAML files. Paths are relative to the scenario file:
//
//	name: supply_fan_check
//	description: "Supply and mixed air temperatures per AHU"
//	specs: ../brick/specs
//	graph: ../brick/building.yaml
//	application: supply_fan_check
//	assertions:
//	  - type: outcome
//	    outcome: resolved
//	  - type: targets
//	    targets: [ex:ahu1, ex:ahu3]
//	  - type: value
//	    target: ex:ahu1
//	    param: tsa
//	    value: ex:ahu1_sat
//	  - type: dropped
//	    target: ex:ahu2
//	    code: NO_APPLICABLE_IMPLEMENTATION
//
// Instead of graph, a scenario may carry an inline fixture with the same
// prefixes and triples layout as a graph file.
//
// # Assertion Types
//
//   - outcome: the run outcome (resolved, empty, rejected)
//   - targets: the exact bound target list, in order
//   - invocation_count: the number of bound invocations
//   - value: the value bound to a parameter for a target
//   - choice: the implementation index chosen for a parameter and target
//   - dropped: a target was dropped, optionally with a code and question
//
// CURIEs in assertions expand with the catalog's and the graph's prefixes.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with sequential run
// IDs (testutil.SequentialRunIDs), so the same scenario always produces
// byte-identical snapshots.
package harness

/*
Package cairn is an assessment navigation engine: a schema for describing
assessments (questionnaires, instruction screens, active tasks) as a tree of
nodes, a navigator that walks that tree in response to participant actions,
and a result tree that mirrors the traversal.

The engine is host-agnostic. A host implements ports.RootNodeController to
display nodes and observe completion; the repository ships a terminal host
(pkg/runner) and an HTTP host (pkg/adapters/http). Assessments are loaded
through ports.AssessmentLoader (in-memory, file directory) and result trees
are persisted through ports.ResultStore (in-memory, file, Redis).

Basic usage:

	loader, _ := memory.NewLoader(assessmentTree)
	engine, _ := cairn.New(loader)
	root, err := engine.Start(ctx, "demo", controller)
	// host displays nodes via controller callbacks, then drives:
	//   state.GoForward(ctx, nil) / state.GoBackward(ctx, nil)

Navigation is synchronous and single-threaded: every transition runs to
completion on the caller's goroutine, and the result history doubles as the
undo mechanism for backward navigation.
*/
package cairn

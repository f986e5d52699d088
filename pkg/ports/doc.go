/*
Package ports defines the interfaces at the boundary of the navigation core.

These decouple the engine from the hosts that display nodes and the adapters
that load schemas and persist results.

# Key Interfaces

  - Navigator: computes next/previous nodes and transition metadata for one
    container level.
  - NodeState / BranchNodeState / RootNodeState: the runtime state handed to
    hosts for display and driven by their forward/back calls.
  - RootNodeController: implemented by the host UI; displays nodes and
    observes completion.
  - AssessmentLoader: resolves assessment identifiers to parsed node trees.
  - ResultStore / RunLocker: persistence and concurrency control for runs.
*/
package ports

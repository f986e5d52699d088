// Package domain holds the core value types of the assessment model: the
// read-only node schema tree, the mutable result tree that mirrors it, and
// the navigation value objects (directions, navigation points, progress,
// async-action scheduling) exchanged between the engine and its hosts.
//
// Nothing in this package performs navigation; the runtime packages operate
// on these types and hosts consume them through the ports interfaces.
package domain

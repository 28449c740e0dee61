// Package dispatch implements the command dispatcher of spec.md §4.6:
// a lowercased-name → command-entry registry with switch tables,
// permission flags, and an argument shape, plus the `@addcommand`/
// `@delcommand` added-command-list mechanism for user-defined command
// names.
//
// The registry itself is a plain Go map guarded by a mutex, grounded
// on the name→handler registration style of the teacher's API server
// (pkg/api/server.go in the example pack) generalized from RPC methods
// to MUX command entries.
package dispatch

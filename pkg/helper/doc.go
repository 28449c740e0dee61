// Package helper models the out-of-process helper boundary named in
// spec.md §1/§5: DNS resolvers, arithmetic proxies, and similar
// collaborators the real engine talks to over packetized pipe
// channels rather than linking in-process.
//
// This is the redesign named in spec.md's Design Notes item 1: rather
// than the original's manual AddRef/Release reference counting on
// marshalled module objects, a helper is a small handle the
// interpreter owns outright — "channel owns interface, interface owns
// value" — whose lifetime ends cleanly at Disconnect. A Channel wraps
// a call function and a disconnect callback; a Registry is the handle
// table the interpreter holds, one entry per named helper.
//
// The out-of-process shape is grounded on the teacher's
// pkg/dns/resolver.go (example pack): a request-in, result-or-error-out
// call dispatched by name, with failures surfaced as plain errors
// rather than panics or blocking the caller.
package helper

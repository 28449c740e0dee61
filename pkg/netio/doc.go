// Package netio names the line-oriented connection seam spec.md §6
// describes as external: a real build would speak telnet option
// negotiation, MCCP2, and TLS here. This package defines the
// LineSession interface those concerns would implement, plus a
// minimal CRLF-delimited net.Conn implementation and listener that
// are enough to drive pkg/dispatch end to end — option negotiation
// itself is a no-op (spec.md §1 marks it out of scope).
//
// The Start(addr)/Stop listener shape is grounded on the teacher's
// pkg/api/server.go Start/Stop pair (example pack), generalized from
// a single gRPC server to a per-connection accept loop that hands each
// new LineSession to a caller-supplied handler goroutine.
package netio

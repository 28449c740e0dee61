// Package notify delivers text lines to connected players: the
// server-side half of spec.md §7's "User-visible errors →
// notify(player, text)" path, generalized to every other place the
// engine sends a player a line (say/pose output, page, connect
// messages).
//
// The Broker/Subscriber shape is grounded on the teacher's
// pkg/events.Broker (example pack), adapted from typed cluster events
// broadcast to every subscriber into addressed per-dbref text delivery:
// a session Subscribes under the dbref it is logged in as, and Notify
// routes a message to that one subscriber instead of fanning out to
// all of them. NotifyRoom layers a room-broadcast convenience on top,
// used by commands like "say" that address every object in a location.
package notify

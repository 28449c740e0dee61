// Package attr implements the attribute catalog and value store of
// spec.md §4.4: a fixed-at-startup catalog of built-in attribute
// numbers plus user-defined slots, and a (dbref, attr_num) → value
// store fronted by a fixed-capacity LRU cache over a durable pager.
//
// The durable pager is a bbolt bucket, grounded on the teacher's
// storage/boltdb.go bucket-per-entity-type pattern; the cache is
// github.com/hashicorp/golang-lru, already in the example pack.
package attr

// Package types holds the shared value types of the object/attribute
// database: dbref sentinels, the Object record, attribute definitions,
// lock trees, and deferred-command entries. Every other package in this
// module imports types rather than redeclaring these shapes, the same
// way the rest of the teacher's tree shares a single types package.
package types

// Package table defines the leaf unit of the keyspace hierarchy: a named,
// shareable data container. A Table carries only descriptor-level metadata,
// namely its data model and its storage class. The engine that would
// interpret the model and hold actual values is deliberately external to
// this repository; here a table is an opaque unit whose lifetime is managed
// by the keyspace that owns it.
//
// Data Models:
//
//	Eight models exist, four plain key-value combinations over binary and
//	string types and four list-valued combinations over the same key types.
//	The numeric value of each Model constant is also its tag byte in the
//	persisted table descriptor, so the order of the constants is part of
//	the on-disk contract and must never change.
//
// Storage Classes:
//
//	A table is either persistent (flushed to disk) or volatile (lives only
//	in memory and starts empty on every boot). The class is fixed at
//	creation time.
//
// System Tables:
//
//	Tables inside the system keyspace are not user data and use a separate
//	descriptor space. The only kind currently defined is the built-in
//	authentication table.
package table

// Package ql implements the DDL statement language of the server: the
// textual front end that turns operator input into operations on the
// keyspace hierarchy. It is deliberately small; everything a statement can
// do maps onto one call of the hierarchy's operation surface.
//
// Statements:
//
//	CREATE SPACE <name>
//	CREATE MODEL [<space>.]<name>(<key-type>, <value-type>) [VOLATILE]
//	DROP SPACE <name> [FORCE]
//	DROP MODEL [<space>.]<name> [FORCE]
//	USE <space>[.<model>]
//	INSPECT SPACES
//	INSPECT SPACE [<name>]
//	INSPECT MODEL [[<space>.]<name>]
//
// Types are `string`, `binary` and `list<...>`, composed as in
// `create model logs(string, list<binary>)`. The eight supported
// key/value combinations correspond exactly to the table models; anything
// else is rejected with a WrongModel error.
//
// FORCE switches a drop to the privileged unconditional removal that skips
// the reference-count check. The protected identifiers stay undroppable
// even with FORCE. The caller must be certain no handle to the object is
// held anywhere in the process; this is an operator-level recovery tool,
// not a bigger hammer for StillInUse errors.
//
// Processing Pipeline:
//
//	Lex turns the raw bytes into tokens, Parse turns tokens into one
//	Statement, and Executor.Run applies a Statement to a Memstore.
//	Executor.Execute chains all three. Identifier length is not a lexer
//	concern; it is enforced where identifiers become ObjectIDs.
//
// Sessions:
//
//	An Executor carries the session's current space and model, starting at
//	default:default. Unqualified names resolve against the current space;
//	if that space has since been dropped, resolution fails with
//	DefaultNotFound. An Executor serves one session and is not safe for
//	concurrent use; the Memstore it operates on is.
package ql

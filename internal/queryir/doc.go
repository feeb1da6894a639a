// Package queryir provides the query-plan AST that every catalog read is
// expressed in.
//
// Plans are built from a closed set of node types and compiled to SQL by
// package querysql:
//
//	[planner] → [Query IR] → [querysql] → parameterized SQLite SQL
//
// SEALED INTERFACES:
//
// Query, Source and Predicate use the marker method pattern, so only types
// in this package implement them. Backends can switch exhaustively:
//
//	switch src := source.(type) {
//	case Table:
//	case Latest:
//	case Join:
//	}
//
// SAFETY RULES:
//
//   - Literal values are canon.Value and always become bound parameters.
//   - Identifiers and sort directions are validated against closed sets
//     (Validate) before any text is produced.
//   - Every top-level Select carries an explicit ORDER BY.
//
// VERSIONED DATA:
//
// Latest is the version resolver: it turns an append-only log of
// (key, version) rows into one row per key. Every catalog read starts from
// it, so filtering and sorting only ever see current versions.
package queryir

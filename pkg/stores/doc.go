// Package stores persists settings documents for Strata. It provides a
// SQLite-backed store with WAL mode, embedded migrations, and CRUD
// operations over named documents: their setting declarations, layers,
// ordered parent links, and explicit values (including explicit nulls).
//
// The store is a caller of the resolution engine, not part of it: it only
// ever sees parsed documents, and resolution semantics are unaffected by
// how or whether layers are persisted.
package stores

// Package sqlite implements a store adapter on top of the pure Go SQLite
// port modernc.org/sqlite, accessed through database/sql.
//
// Entries live in a WITHOUT ROWID table keyed by the raw key blob, so the
// table itself is the ordered B-tree the cursor scans walk. The database runs
// in WAL mode; synchronous is FULL for durable runs and OFF otherwise.
package sqlite

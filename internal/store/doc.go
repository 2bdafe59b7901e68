// Package store is the storage handle behind a record store: one SQLite
// database opened through database/sql.
//
// The handle exposes statement execution, fully materialized queries, the
// durable schema version slot (PRAGMA user_version), catalog introspection
// and transaction scoping. It knows nothing about the presence cache; the
// driver package layers that on top.
//
// # Drivers
//
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, default)
//   - "sqlite": modernc.org/sqlite (pure Go)
//
// # Database Configuration
//
//   - One open connection: SQLite allows a single writer, and an in-memory
//     database lives exactly as long as its connection
//   - WAL mode: concurrent readers in other processes during writes
//   - busy_timeout: wait for locks instead of failing with SQLITE_BUSY
//   - locking_mode=EXCLUSIVE and temp_store=MEMORY when configured
//
// Row values are normalized to the SQLite storage classes: nil, int64,
// float64, string and []byte.
package store

// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements every storage port through a single database:
//
//   - SourceStore, ResourceStore, TagStore: the content tree and its cached tags
//   - ModuleStore: configured modules and vessels
//   - DetectedStore: the detection staging area
//   - ContentStore: ingestion transactions
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory (NNN_name.up.sql).
//
// # Data Location
//
// By default, the database is stored at ~/.unima/data/unima.db
//
// # Thread Safety
//
// The database runs in WAL mode and transactions take the write lock when
// they begin, so concurrent ingestion transactions queue instead of failing
// on lock upgrades. A ContentTx serialises the calls made on it.
package sqlite

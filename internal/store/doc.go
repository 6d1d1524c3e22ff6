// Package store provides SQLite-backed storage for live measures.
//
// A live measure is the stored value of one metric on one component. The
// live_measures table holds at most one row per (component_uuid, metric_uuid)
// pair, enforced by a UNIQUE constraint. Rows are written through a Session,
// which wraps a transaction that can be committed several times during a
// single step.
//
// # Write paths
//
//   - Upsert: INSERT ... ON CONFLICT(component_uuid, metric_uuid) DO UPDATE.
//     Rows whose value columns did not change are left untouched, so
//     re-running an unchanged analysis performs no net writes.
//   - Insert: plain INSERT, used after DeleteByComponent on backends where
//     upsert is unavailable.
//
// Store.SupportsUpsert reports which path the backend can serve. SQLite
// gained ON CONFLICT ... DO UPDATE in 3.24.0; WithUpsertMode can force
// either path regardless of the version.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are applied through PRAGMA user_version migrations.
package store

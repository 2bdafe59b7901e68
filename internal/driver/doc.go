// Package driver layers the presence cache, batched writes and schema
// lifecycle on top of a store.Store.
//
// A Driver owns exactly one store and one cache.Presence. Every operation
// takes the driver's mutex, so the cache a reader observes always matches
// the most recently committed transaction.
//
// # Critical Patterns
//
// Commit-then-cache:
//   - Batch and ResetDatabase mutate the cache only after the storage
//     transaction has committed, and before returning
//   - A rolled back batch leaves the cache untouched
//
// Presence-aware reads:
//   - Find and CachedQuery answer AlreadyKnown for ids the caller holds
//   - The first sight of a row returns it in full and marks it present
//
// Schema gating:
//   - ResolveSchema only classifies; it never rebuilds a newer database
//   - ApplyMigration requires the stored version to equal the migration's
//     from version exactly
//
// All failures are returned as values. Storage failures inside batches,
// resets and migrations surface as *Error with a Code.
package driver

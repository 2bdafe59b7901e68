// Package schema classifies the relationship between the schema version
// stored in a database and the version the calling application expects.
//
// The classification is a sealed sum type:
//   - Compatible: stored and expected versions are equal
//   - NeedsSetup: nothing is installed, or the stored schema is newer than
//     the application understands
//   - NeedsMigration: the stored schema is older and can be migrated forward
//
// Resolve is a pure function. Acting on the result (running setup SQL or a
// migration) is the job of the driver and registry packages; in particular a
// newer schema on disk is only ever reported, never silently rebuilt.
package schema

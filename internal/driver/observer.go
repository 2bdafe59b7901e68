package driver

import "time"

// Lookup outcomes reported to an Observer.
const (
	LookupKnown        = "known"
	LookupMaterialized = "materialized"
	LookupNotFound     = "not_found"
)

// Schema changes reported to an Observer.
const (
	ChangeReset     = "reset"
	ChangeMigration = "migration"
)

// Observer receives notifications about driver activity. It is an
// optional capability supplied by the host at construction time; the
// driver never looks one up on its own.
//
// Observers are called with the driver's mutex held and must not call
// back into the driver.
type Observer interface {
	// ObserveLookup is called once per row considered by Find or
	// CachedQuery, with the outcome for that row.
	ObserveLookup(operation, outcome string)

	// ObserveBatch is called once per Batch call, after commit or rollback.
	ObserveBatch(operations, statements int, elapsed time.Duration, err error)

	// ObserveSchemaChange is called after a reset or migration attempt.
	ObserveSchemaChange(change string, version int, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string)                {}
func (nopObserver) ObserveBatch(int, int, time.Duration, error) {}
func (nopObserver) ObserveSchemaChange(string, int, error)      {}

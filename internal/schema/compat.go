package schema

import "fmt"

// Compatibility is a sealed interface over the outcomes of Resolve.
// Only Compatible, NeedsSetup and NeedsMigration implement it.
type Compatibility interface {
	compatibility()
}

// Compatible means the stored schema version equals the expected version.
type Compatible struct{}

func (Compatible) compatibility() {}

// NeedsSetup means the database must be (re)built from the full schema.
//
// Stored is 0 for an empty database. A non-zero Stored means the database
// holds a schema newer than expected; rebuilding it discards data, so that
// decision belongs to the caller.
type NeedsSetup struct {
	Stored int
}

func (NeedsSetup) compatibility() {}

// Newer reports whether the database holds a schema newer than expected.
func (n NeedsSetup) Newer() bool {
	return n.Stored > 0
}

// NeedsMigration means the stored schema is older than expected and a
// migration starting at From must be applied.
type NeedsMigration struct {
	From int
}

func (NeedsMigration) compatibility() {}

// Resolve classifies a stored schema version against the expected one.
// Rules are checked in order and the first match wins.
func Resolve(stored, expected int) Compatibility {
	switch {
	case stored == expected:
		return Compatible{}
	case stored == 0:
		return NeedsSetup{}
	case stored < expected:
		return NeedsMigration{From: stored}
	default:
		return NeedsSetup{Stored: stored}
	}
}

// IsCompatible reports whether c is Compatible.
func IsCompatible(c Compatibility) bool {
	_, ok := c.(Compatible)
	return ok
}

// Describe renders a compatibility for logs and CLI output.
func Describe(c Compatibility) string {
	switch v := c.(type) {
	case Compatible:
		return "compatible"
	case NeedsSetup:
		if v.Newer() {
			return fmt.Sprintf("needs setup (stored version %d is newer than expected)", v.Stored)
		}
		return "needs setup"
	case NeedsMigration:
		return fmt.Sprintf("needs migration from version %d", v.From)
	default:
		return "unknown"
	}
}

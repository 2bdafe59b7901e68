package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Setup is a complete schema: the SQL that creates every table from an
// empty database, and the version it installs.
type Setup struct {
	Version int
	SQL     string
}

// Validate checks that the setup can be applied.
func (s Setup) Validate() error {
	if s.Version <= 0 {
		return fmt.Errorf("schema version must be positive, got %d", s.Version)
	}
	if strings.TrimSpace(s.SQL) == "" {
		return errors.New("schema sql is required")
	}
	return nil
}

// Migration moves a database from version From to version To.
// It applies only when the stored version is exactly From. SQL may be
// empty when a version bump carries no schema change.
type Migration struct {
	From int
	To   int
	SQL  string
}

// Validate checks that the migration is well formed.
func (m Migration) Validate() error {
	if m.From <= 0 {
		return fmt.Errorf("migration from version must be positive, got %d", m.From)
	}
	if m.To <= m.From {
		return fmt.Errorf("migration to version (%d) must be greater than from version (%d)", m.To, m.From)
	}
	return nil
}

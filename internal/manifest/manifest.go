package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recordstore/internal/driver"
	"github.com/roach88/recordstore/internal/schema"
)

// Schema is a full schema document.
type Schema struct {
	Version int    `yaml:"version" json:"version"`
	SQL     string `yaml:"sql" json:"sql"`
}

// Setup converts the document to a schema.Setup.
func (s Schema) Setup() schema.Setup {
	return schema.Setup{Version: s.Version, SQL: s.SQL}
}

// Migration is a migration document.
type Migration struct {
	From int    `yaml:"from" json:"from"`
	To   int    `yaml:"to" json:"to"`
	SQL  string `yaml:"sql" json:"sql"`
}

// Migration converts the document to a schema.Migration.
func (m Migration) Migration() schema.Migration {
	return schema.Migration{From: m.From, To: m.To, SQL: m.SQL}
}

// Batch is a batch document.
type Batch struct {
	Operations []Operation `yaml:"operations" json:"operations"`
}

// Operation is one entry of a batch document.
type Operation struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Table string  `yaml:"table,omitempty" json:"table,omitempty"`
	SQL   string  `yaml:"sql" json:"sql"`
	Args  [][]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// DriverOperations converts the document to driver operations.
func (b Batch) DriverOperations() ([]driver.Operation, error) {
	ops := make([]driver.Operation, 0, len(b.Operations))
	for i, op := range b.Operations {
		kind, err := driver.ParseOpKind(op.Kind)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		ops = append(ops, driver.Operation{
			Kind:    kind,
			Table:   op.Table,
			SQL:     op.SQL,
			ArgSets: op.Args,
		})
	}
	return ops, nil
}

// LoadSchema reads and validates a schema document.
func LoadSchema(path string) (*Schema, error) {
	var doc Schema
	if err := load(path, &doc); err != nil {
		return nil, err
	}
	if err := doc.Setup().Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return &doc, nil
}

// LoadMigration reads and validates a migration document.
func LoadMigration(path string) (*Migration, error) {
	var doc Migration
	if err := load(path, &doc); err != nil {
		return nil, err
	}
	if err := doc.Migration().Validate(); err != nil {
		return nil, fmt.Errorf("invalid migration %s: %w", path, err)
	}
	return &doc, nil
}

// LoadBatch reads and validates a batch document.
func LoadBatch(path string) (*Batch, error) {
	var doc Batch
	if err := load(path, &doc); err != nil {
		return nil, err
	}
	if err := validateBatch(&doc); err != nil {
		return nil, fmt.Errorf("invalid batch %s: %w", path, err)
	}
	return &doc, nil
}

func validateBatch(b *Batch) error {
	if len(b.Operations) == 0 {
		return errors.New("operations list is required and must be non-empty")
	}
	for i, op := range b.Operations {
		kind, err := driver.ParseOpKind(op.Kind)
		if err != nil {
			return fmt.Errorf("operations[%d]: %w", i, err)
		}
		if op.SQL == "" {
			return fmt.Errorf("operations[%d]: sql is required", i)
		}
		if kind != driver.OpUpdate && op.Table == "" {
			return fmt.Errorf("operations[%d]: table is required for %s", i, kind)
		}
	}
	return nil
}

// load decodes the document at path into target, choosing the format by
// file extension.
func load(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	case ".cue":
		data, err = exportCUE(path, data)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported manifest extension %q", filepath.Ext(path))
	}

	if err := decodeStrict(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// decodeStrict decodes YAML (or JSON) and rejects unknown fields.
func decodeStrict(data []byte, target any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("document is empty")
		}
		return err
	}
	return nil
}

// exportCUE evaluates a CUE file and returns its value as JSON.
func exportCUE(path string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}
	out, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE: %w", err)
	}
	return out, nil
}

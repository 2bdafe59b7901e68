// Package manifest reads schema, migration and batch documents from disk.
//
// Documents are YAML (".yaml", ".yml"), JSON (".json") or CUE (".cue").
// CUE files are evaluated, checked to be concrete and exported to JSON
// before decoding, so all formats share one strict decoder that rejects
// unknown fields.
//
// A schema document:
//
//	version: 3
//	sql: |
//	  CREATE TABLE notes (id TEXT PRIMARY KEY NOT NULL, body TEXT);
//
// A batch document:
//
//	operations:
//	  - kind: insert
//	    table: notes
//	    sql: INSERT INTO notes (id, body) VALUES (?, ?)
//	    args:
//	      - [n1, first]
//	      - [n2, second]
package manifest

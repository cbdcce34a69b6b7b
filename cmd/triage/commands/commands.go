// Package commands provides the triage CLI subcommands
package commands

import (
	"encoding/json"
	"io"
	"time"

	"gorm.io/gorm"
)

// OpenDB returns the database, connecting on first call
type OpenDB func() (*gorm.DB, error)

// now is the clock used by commands, replaced in tests
var now = func() time.Time { return time.Now().UTC() }

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

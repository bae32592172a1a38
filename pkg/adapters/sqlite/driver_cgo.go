//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sqlite

import (
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3" // cgo sqlite driver
)

const (
	driverName = "sqlite3"
	driverType = "cgo"
)

// buildDSN renders a mattn/go-sqlite3 DSN.
func buildDSN(path string, p *Params) string {
	q := url.Values{}
	q.Set("_journal_mode", p.JournalMode)
	q.Set("_busy_timeout", strconv.Itoa(p.BusyTimeout))
	q.Set("_foreign_keys", strconv.FormatBool(*p.ForeignKeys))
	return "file:" + path + "?" + q.Encode()
}

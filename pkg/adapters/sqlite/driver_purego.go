//go:build !cgo_sqlite

package sqlite

import (
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

const (
	driverName = "sqlite"
	driverType = "purego"
)

// buildDSN renders a modernc.org/sqlite DSN with pragmas applied on every new connection.
func buildDSN(path string, p *Params) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeout))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", p.JournalMode))
	fk := 0
	if *p.ForeignKeys {
		fk = 1
	}
	q.Add("_pragma", fmt.Sprintf("foreign_keys(%d)", fk))
	return "file:" + path + "?" + q.Encode()
}

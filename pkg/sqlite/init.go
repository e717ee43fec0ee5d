// Package sqlite registers the SQLite driver used by the transcript store.
package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the name to pass to sql.Open.
const DriverName = "sqlite3_medichat"

// Every pooled connection gets the same pragmas; they are per connection in SQLite.
var connectPragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
}

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, pragma := range connectPragmas {
				if _, err := conn.Exec(pragma, nil); err != nil {
					return err
				}
			}
			return nil
		},
	})
}

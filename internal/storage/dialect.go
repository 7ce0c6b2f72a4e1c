package storage

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"

	"github.com/Sypoo1/finance/internal/core"
)

// dialect hides the differences between the two supported drivers: bind
// placeholder syntax, row-locking support, and constraint-error codes.
// Queries in the repository are written with '?' placeholders and rebound
// on the way out.
type dialect interface {
	name() string
	rebind(query string) string
	forUpdate() string
	mapConstraint(err error) error
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) forUpdate() string { return " FOR UPDATE" }

func (postgresDialect) mapConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		return core.ErrConflict
	case "23503": // foreign_key_violation
		return core.ErrReferenced
	}
	return nil
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) rebind(query string) string { return query }

// SQLite has no row-level locks; the write transaction itself serializes.
func (sqliteDialect) forUpdate() string { return "" }

func (sqliteDialect) mapConstraint(err error) error {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return nil
	}
	code := sqErr.Code()
	if code&0xff != 19 { // SQLITE_CONSTRAINT
		return nil
	}
	if code == 787 { // SQLITE_CONSTRAINT_FOREIGNKEY
		return core.ErrReferenced
	}
	return core.ErrConflict
}

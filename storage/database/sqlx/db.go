package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
)

// ext resolves the executor to run a query on: a caller-provided transaction
// takes precedence over the repository's own connection pool.
func ext(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return db
}

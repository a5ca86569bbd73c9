package repositories

import (
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/sci-ndp/ndp-affinities/pkg/database"
)

const defaultListLimit = 100

// Repository holds the shared dependencies for all table repositories
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new base repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// normalizePage clamps negative paging values to 0. The default page size is
// applied at the binding layer, so a limit of 0 deliberately yields no rows.
func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	return offset, limit
}

package postgres

import (
	"context"

	"github.com/user/site-mirror/internal/entity"
)

// OutcomeRepoImpl appends discovery outcomes to the mirror_outcomes table.
type OutcomeRepoImpl struct {
	db DB
}

// NewOutcomeRepo creates a new instance of OutcomeRepoImpl.
func NewOutcomeRepo(db DB) *OutcomeRepoImpl {
	return &OutcomeRepoImpl{db: db}
}

// Save inserts one outcome row.
func (r *OutcomeRepoImpl) Save(ctx context.Context, o *entity.DiscoveryOutcome) error {
	query := `
		INSERT INTO mirror_outcomes (run_id, page_url, raw, url, role, category, kind, reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		o.RunID,
		o.PageURL,
		o.Raw,
		o.URL,
		o.Role.String(),
		o.Category.String(),
		string(o.Kind),
		o.Reason,
		o.At,
	)
	return err
}

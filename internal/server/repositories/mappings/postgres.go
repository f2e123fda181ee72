package mappings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/dbx"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/google/uuid"
)

const mappingColumns = `id, owner_user_id, source_resource_id, target_resource_id, label, correspondences, stale, created_at`

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace upserts the whole mapping in one statement.
func (r *PostgresRepository) Replace(ctx context.Context, spec *models.MappingSpec) error {
	corr, err := json.Marshal(spec.Correspondences)
	if err != nil {
		return fmt.Errorf("encode correspondences: %w", err)
	}
	query := `
		INSERT INTO mappings (id, owner_user_id, source_resource_id, target_resource_id, label, correspondences, stale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (owner_user_id, source_resource_id, target_resource_id, label)
		DO UPDATE SET id = EXCLUDED.id,
		              correspondences = EXCLUDED.correspondences,
		              stale = FALSE,
		              created_at = EXCLUDED.created_at`
	if _, err := r.db.ExecContext(ctx, query,
		spec.ID, spec.OwnerUserID, spec.SourceResourceID, spec.TargetResourceID, spec.Label, corr, spec.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns one mapping owned by owner.
func (r *PostgresRepository) Get(ctx context.Context, owner, id string) (*models.MappingSpec, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + mappingColumns + ` FROM mappings WHERE owner_user_id = $1 AND id = $2`
	rows, err := r.db.QueryContext(ctx, query, owner, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	out, err := scanMappings(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, common.ErrorNotFound
	}
	return out[0], nil
}

// List returns owner's mappings, oldest first.
func (r *PostgresRepository) List(ctx context.Context, owner string) ([]*models.MappingSpec, error) {
	query := `SELECT ` + mappingColumns + ` FROM mappings WHERE owner_user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanMappings(rows)
}

// MarkStale flags owner's live mappings stale.
func (r *PostgresRepository) MarkStale(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE mappings SET stale = TRUE WHERE owner_user_id = $1 AND stale = FALSE`, owner)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanMappings(rows *sql.Rows) ([]*models.MappingSpec, error) {
	defer rows.Close()

	out := make([]*models.MappingSpec, 0)
	for rows.Next() {
		m := &models.MappingSpec{}
		var corr []byte
		if err := rows.Scan(&m.ID, &m.OwnerUserID, &m.SourceResourceID, &m.TargetResourceID, &m.Label, &corr, &m.Stale, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(corr, &m.Correspondences); err != nil {
			return nil, fmt.Errorf("decode correspondences: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

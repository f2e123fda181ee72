package secrets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/dbx"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/google/uuid"
)

const recordColumns = `r.id, r.owner_user_id, r.provider, r.backend, r.payload, r.validation, r.created_at, r.rotated_at, r.revoked_at`

// PostgresRepository implements Repository over dbx.DBTX. When bound to a
// *sql.DB, multi-statement operations run in their own transaction; when
// bound to a *sql.Tx they join the caller's transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) (string, error)) (string, error) {
	if b, ok := r.db.(dbx.TxBeginner); ok {
		return dbx.WithTxResult(ctx, b, nil, fn)
	}
	return fn(ctx, r.db)
}

// Activate inserts rec and flips the active pointer while holding the row
// lock on active_secrets, so concurrent activations for one pair serialize.
func (r *PostgresRepository) Activate(ctx context.Context, rec *models.SecretRecord) (string, error) {
	validation, err := marshalValidation(rec.Validation)
	if err != nil {
		return "", err
	}

	return r.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO active_secrets (owner_user_id, provider)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			rec.OwnerUserID, rec.Provider); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}

		var prev sql.NullString
		if err := tx.QueryRowContext(ctx, `
			SELECT secret_id
			FROM active_secrets
			WHERE owner_user_id = $1 AND provider = $2
			FOR UPDATE`,
			rec.OwnerUserID, rec.Provider).Scan(&prev); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO secret_records (id, owner_user_id, provider, backend, payload, validation, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.OwnerUserID, rec.Provider, rec.Backend, rec.Payload, validation, rec.CreatedAt); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE active_secrets
			SET secret_id = $3, updated_at = $4
			WHERE owner_user_id = $1 AND provider = $2`,
			rec.OwnerUserID, rec.Provider, rec.ID, rec.CreatedAt); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}

		if !prev.Valid {
			return "", nil
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE secret_records
			SET rotated_at = $2
			WHERE id = $1 AND rotated_at IS NULL`,
			prev.String, rec.CreatedAt); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		return prev.String, nil
	})
}

// Get returns the record with the given id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.SecretRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM secret_records r WHERE r.id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// Active returns the record currently pointed to by active_secrets.
func (r *PostgresRepository) Active(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM active_secrets a
		JOIN secret_records r ON r.id = a.secret_id
		WHERE a.owner_user_id = $1 AND a.provider = $2`
	return scanRecord(r.db.QueryRowContext(ctx, query, owner, provider))
}

// Revoke stamps revoked_at once and detaches the record from active_secrets.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, common.ErrorNotFound
	}

	res, err := r.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		var owner, provider string
		err := tx.QueryRowContext(ctx, `
			UPDATE secret_records
			SET revoked_at = $2
			WHERE id = $1 AND revoked_at IS NULL
			RETURNING owner_user_id, provider`,
			id, at).Scan(&owner, &provider)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM secret_records WHERE id = $1)`, id).Scan(&exists); err != nil {
				return "", fmt.Errorf("db error: %w", err)
			}
			if !exists {
				return "", common.ErrorNotFound
			}
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE active_secrets
			SET secret_id = NULL, updated_at = $4
			WHERE owner_user_id = $1 AND provider = $2 AND secret_id = $3`,
			owner, provider, id, at); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		return id, nil
	})
	if err != nil {
		return false, err
	}
	return res != "", nil
}

func scanRecord(row *sql.Row) (*models.SecretRecord, error) {
	rec := &models.SecretRecord{}
	var (
		validation        []byte
		rotated, revoked  sql.NullTime
		provider, backend string
	)
	err := row.Scan(&rec.ID, &rec.OwnerUserID, &provider, &backend, &rec.Payload, &validation, &rec.CreatedAt, &rotated, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Provider = models.Provider(provider)
	rec.Backend = models.Backend(backend)
	if rotated.Valid {
		t := rotated.Time
		rec.RotatedAt = &t
	}
	if revoked.Valid {
		t := revoked.Time
		rec.RevokedAt = &t
	}
	if len(validation) > 0 {
		rec.Validation = &models.ValidationResult{}
		if err := json.Unmarshal(validation, rec.Validation); err != nil {
			return nil, fmt.Errorf("decode validation: %w", err)
		}
	}
	return rec, nil
}

func marshalValidation(v *models.ValidationResult) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode validation: %w", err)
	}
	return b, nil
}

package farmers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/dbx"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

// columns maps lookup keys to their farmers table column.
var columns = map[models.LookupKey]string{
	models.KeyFarmerID:  "farmer_id",
	models.KeyTempID:    "temp_id",
	models.KeyNRCHash:   "nrc_hash",
	models.KeyPhoneHash: "phone_hash",
}

// constraintKeys maps unique constraint names from the migrations to keys.
var constraintKeys = map[string]models.LookupKey{
	"farmers_pkey":           models.KeyFarmerID,
	"farmers_temp_id_key":    models.KeyTempID,
	"farmers_nrc_hash_key":   models.KeyNRCHash,
	"farmers_phone_hash_key": models.KeyPhoneHash,
}

// PostgresRepository stores each farmer as a jsonb document with the lookup
// keys projected into uniquely indexed columns.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindOne(ctx context.Context, filter Filter) (*models.Farmer, error) {
	col, ok := columns[filter.Key]
	if !ok {
		return nil, fmt.Errorf("unsupported lookup key %q", filter.Key)
	}

	query := `SELECT document FROM farmers WHERE ` + col + ` = $1`
	return scanFarmer(r.db.QueryRowContext(ctx, query, filter.Value))
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.Farmer) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode farmer: %w", err)
	}

	query :=
		`INSERT INTO farmers (farmer_id, temp_id, nrc_hash, phone_hash, email_hash, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err = r.db.ExecContext(ctx, query,
		f.FarmerID, nullable(f.TempID), nullable(f.NRCHash), nullable(f.PhoneHash), nullable(f.EmailHash),
		string(doc), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE, applies mutate and writes
// the result back. When the repository is bound to a *sql.DB the whole
// read-modify-write runs in its own transaction; when bound to a transaction
// it joins it.
func (r *PostgresRepository) Update(ctx context.Context, farmerID string, mutate Mutator) (*models.Farmer, error) {
	var out *models.Farmer
	run := func(ctx context.Context, tx dbx.DBTX) error {
		f, err := scanFarmer(tx.QueryRowContext(ctx,
			`SELECT document FROM farmers WHERE farmer_id = $1 FOR UPDATE`, farmerID))
		if err != nil {
			return err
		}
		if err := mutate(f); err != nil {
			return err
		}
		f.FarmerID = farmerID

		doc, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode farmer: %w", err)
		}

		query :=
			`UPDATE farmers
			 SET temp_id = $2, nrc_hash = $3, phone_hash = $4, email_hash = $5, document = $6, updated_at = $7
			 WHERE farmer_id = $1
			 `
		if _, err := tx.ExecContext(ctx, query, farmerID,
			nullable(f.TempID), nullable(f.NRCHash), nullable(f.PhoneHash), nullable(f.EmailHash),
			string(doc), f.UpdatedAt); err != nil {
			return mapWriteError(err)
		}
		out = f
		return nil
	}

	var err error
	if db, ok := r.db.(dbx.TxBeginner); ok {
		err = dbx.WithTx(ctx, db, nil, run)
	} else {
		err = run(ctx, r.db)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanFarmer(row *sql.Row) (*models.Farmer, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	f := &models.Farmer{}
	if err := json.Unmarshal(doc, f); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	return f, nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		return &common.DuplicateKeyError{Key: string(constraintKeys[constraint]), Err: err}
	}
	return fmt.Errorf("db error: %w", err)
}

// nullable stores empty strings as NULL so partial unique indexes skip them.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package vaccination

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// -- Vaccine reference table --

type vaccineRepoPG struct{ pool *pgxpool.Pool }

func NewVaccineRepoPG(pool *pgxpool.Pool) VaccineRepository {
	return &vaccineRepoPG{pool: pool}
}

func (r *vaccineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const vaccineCols = `id, name, category, class, description, side_effects_common, side_effects_seek_vet`

func (r *vaccineRepoPG) List(ctx context.Context) ([]*Vaccine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vaccineCols+` FROM vaccines ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vaccines []*Vaccine
	for rows.Next() {
		var v Vaccine
		if err := rows.Scan(&v.ID, &v.Name, &v.Category, &v.Class, &v.Description,
			&v.SideEffectsCommon, &v.SideEffectsSeekVet); err != nil {
			return nil, err
		}
		vaccines = append(vaccines, &v)
	}
	return vaccines, rows.Err()
}

func (r *vaccineRepoPG) Upsert(ctx context.Context, v *Vaccine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vaccines (id, name, category, class, description,
			side_effects_common, side_effects_seek_vet, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7,
			COALESCE((SELECT MAX(position)+1 FROM vaccines), 0))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			class = EXCLUDED.class,
			description = EXCLUDED.description,
			side_effects_common = EXCLUDED.side_effects_common,
			side_effects_seek_vet = EXCLUDED.side_effects_seek_vet`,
		v.ID, v.Name, v.Category, v.Class, v.Description,
		v.SideEffectsCommon, v.SideEffectsSeekVet)
	return err
}

// -- Vaccination records --

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, dog_id, vaccine_id, date_administered, dose_number,
	veterinarian, clinic, lot_number, notes, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.DogID, &rec.VaccineID, &rec.DateAdministered, &rec.DoseNumber,
		&rec.Veterinarian, &rec.Clinic, &rec.LotNumber, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return &rec, err
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vaccination_records (id, dog_id, vaccine_id, date_administered,
			dose_number, veterinarian, clinic, lot_number, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.DogID, rec.VaccineID, rec.DateAdministered,
		rec.DoseNumber, rec.Veterinarian, rec.Clinic, rec.LotNumber, rec.Notes)
	return err
}

func (r *recordRepoPG) ListByDog(ctx context.Context, dogID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM vaccination_records
		 WHERE dog_id = $1 ORDER BY date_administered, created_at`, dogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepoPG) Delete(ctx context.Context, dogID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM vaccination_records WHERE id = $1 AND dog_id = $2`, id, dogID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

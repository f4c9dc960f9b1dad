package dog

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const dogCols = `id, owner_id, name, breed, birth_date, sex, weight_kg,
	goes_to_daycare, visits_dog_parks, travels, tick_exposure,
	conditions, medications, created_at, updated_at`

func scanDog(row pgx.Row) (*Dog, error) {
	var d Dog
	err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Breed, &d.BirthDate, &d.Sex, &d.WeightKG,
		&d.GoesToDaycare, &d.VisitsDogParks, &d.Travels, &d.TickExposure,
		&d.Conditions, &d.Medications, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Dog) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dogs (id, owner_id, name, breed, birth_date, sex, weight_kg,
			goes_to_daycare, visits_dog_parks, travels, tick_exposure,
			conditions, medications)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.OwnerID, d.Name, d.Breed, d.BirthDate, d.Sex, d.WeightKG,
		d.GoesToDaycare, d.VisitsDogParks, d.Travels, d.TickExposure,
		d.Conditions, d.Medications)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Dog, error) {
	return scanDog(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dogCols+` FROM dogs WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Dog, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM dogs WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dogCols+` FROM dogs WHERE owner_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var dogs []*Dog
	for rows.Next() {
		d, err := scanDog(rows)
		if err != nil {
			return nil, 0, err
		}
		dogs = append(dogs, d)
	}
	return dogs, total, rows.Err()
}

// ListWithReminders returns every dog whose owner has reminders enabled,
// for the batch runner.
func (r *repoPG) ListWithReminders(ctx context.Context) ([]*Dog, error) {
	cols := "d.id, d.owner_id, d.name, d.breed, d.birth_date, d.sex, d.weight_kg, " +
		"d.goes_to_daycare, d.visits_dog_parks, d.travels, d.tick_exposure, " +
		"d.conditions, d.medications, d.created_at, d.updated_at"
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+`
		FROM dogs d
		JOIN reminder_preferences p ON p.owner_id = d.owner_id
		WHERE p.enabled
		ORDER BY d.owner_id, d.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dogs []*Dog
	for rows.Next() {
		d, err := scanDog(rows)
		if err != nil {
			return nil, err
		}
		dogs = append(dogs, d)
	}
	return dogs, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Dog) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE dogs SET name=$3, breed=$4, birth_date=$5, sex=$6, weight_kg=$7,
			goes_to_daycare=$8, visits_dog_parks=$9, travels=$10, tick_exposure=$11,
			conditions=$12, medications=$13, updated_at=NOW()
		WHERE id = $1 AND owner_id = $2`,
		d.ID, d.OwnerID, d.Name, d.Breed, d.BirthDate, d.Sex, d.WeightKG,
		d.GoesToDaycare, d.VisitsDogParks, d.Travels, d.TickExposure,
		d.Conditions, d.Medications)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM dogs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

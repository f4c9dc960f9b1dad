package reminder

import (
	"context"
	"errors"
	"time"

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

// -- Preferences --

type prefRepoPG struct{ pool *pgxpool.Pool }

func NewPreferenceRepoPG(pool *pgxpool.Pool) PreferenceRepository {
	return &prefRepoPG{pool: pool}
}

func (r *prefRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *prefRepoPG) GetByOwner(ctx context.Context, ownerID string) (*Preference, error) {
	var p Preference
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT owner_id, enabled, lead_time_days, resend_interval_hours, email, created_at, updated_at
		FROM reminder_preferences WHERE owner_id = $1`, ownerID).
		Scan(&p.OwnerID, &p.Enabled, &p.LeadTimeDays, &p.ResendIntervalHours, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPreference
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prefRepoPG) Upsert(ctx context.Context, p *Preference) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reminder_preferences (owner_id, enabled, lead_time_days, resend_interval_hours, email)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (owner_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			lead_time_days = EXCLUDED.lead_time_days,
			resend_interval_hours = EXCLUDED.resend_interval_hours,
			email = EXCLUDED.email,
			updated_at = NOW()`,
		p.OwnerID, p.Enabled, p.LeadTimeDays, p.ResendIntervalHours, p.Email)
	return err
}

// -- Dispatch log --

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *logRepoPG) Claim(ctx context.Context, e *LogEntry, resendInterval time.Duration) (bool, error) {
	e.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reminder_logs (id, owner_id, dog_id, vaccine_id, dose_number, scheduled_date, sent_at)
		SELECT $1, $2, $3, $4, $5, $6, NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM reminder_logs
			WHERE owner_id = $2 AND dog_id = $3 AND vaccine_id = $4
			  AND dose_number = $5 AND scheduled_date = $6
			  AND sent_at > NOW() - $7
		)`,
		e.ID, e.OwnerID, e.DogID, e.VaccineID, e.DoseNumber, e.ScheduledDate, resendInterval)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *logRepoPG) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM reminder_logs WHERE id = $1`, id)
	return err
}

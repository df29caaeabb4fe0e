package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"checkin/internal/dbx"
)

// Table names per policy. Each carries the uniqueness constraint its policy
// relies on: phone_number alone, or (phone_number, date_recorded).
const (
	registerTable = "attendance_records"
	dailyTable    = "daily_attendance"
)

// registrationLockKey serializes registration id assignment across
// connections for the duration of one transaction.
const registrationLockKey int64 = 0x636865636b696e

const recordColumns = `id, COALESCE(registration_id, ''), phone_number, name, college_name, title, category,
		to_char(date_recorded, 'YYYY-MM-DD'), to_char(time_recorded, 'HH24:MI:SS'), status, created_at`

// Repository persists attendance records in Postgres.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository creates a repo bound to the table of the given policy.
func NewRepository(db *sql.DB, policy Policy) *Repository {
	table := registerTable
	if policy == PolicyDaily {
		table = dailyTable
	}
	return &Repository{db: db, table: table}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (Record, error) {
	var rec Record
	dest := []any{
		&rec.ID, &rec.RegistrationID, &rec.PhoneNumber, &rec.Name, &rec.CollegeName, &rec.Title, &rec.Category,
		&rec.DateRecorded, &rec.TimeRecorded, (*string)(&rec.Status), &rec.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return rec, err
}

// Register inserts a new row with the next registration id, or refreshes
// the existing row for the phone number while keeping its registration id.
// The count and the upsert run in one transaction under an advisory lock,
// so concurrent check-ins never share a registration number.
func (r *Repository) Register(ctx context.Context, rec Record, prefix string) (Record, bool, error) {
	var (
		out      Record
		inserted bool
	)
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
			return err
		}

		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table).Scan(&count); err != nil {
			return err
		}
		regID := FormatRegistrationID(prefix, count+1)

		row := tx.QueryRowContext(ctx, `
		INSERT INTO `+r.table+` (registration_id, phone_number, name, college_name, title, category, date_recorded, time_recorded, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::time, 'present')
		ON CONFLICT (phone_number) DO UPDATE SET
			name = EXCLUDED.name,
			college_name = EXCLUDED.college_name,
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			date_recorded = EXCLUDED.date_recorded,
			time_recorded = EXCLUDED.time_recorded,
			status = 'present'
		RETURNING `+recordColumns+`, (xmax = 0)`,
			regID, rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category, rec.DateRecorded, rec.TimeRecorded)

		var err error
		out, err = scanRecord(row, &inserted)
		return err
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("db error: %w", err)
	}
	return out, inserted, nil
}

// InsertDaily inserts today's row for the phone number. When a row for the
// same day already exists nothing is written and that row is returned with
// inserted=false.
func (r *Repository) InsertDaily(ctx context.Context, rec Record) (Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO `+r.table+` (phone_number, name, college_name, title, category, date_recorded, time_recorded, status)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, 'present')
		ON CONFLICT (phone_number, date_recorded) DO NOTHING
		RETURNING `+recordColumns,
		rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category, rec.DateRecorded, rec.TimeRecorded)

	out, err := scanRecord(row)
	if err == nil {
		return out, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, fmt.Errorf("db error: %w", err)
	}

	existing, err := scanRecord(r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM `+r.table+`
		WHERE phone_number = $1 AND date_recorded = $2::date`, rec.PhoneNumber, rec.DateRecorded))
	if err != nil {
		return Record{}, false, fmt.Errorf("db error: %w", err)
	}
	return existing, false, nil
}

// List returns every record, newest first.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	return r.query(ctx, `SELECT `+recordColumns+` FROM `+r.table+`
		ORDER BY date_recorded DESC, time_recorded DESC, id DESC`)
}

// ListByDate returns the records of one calendar date, latest first.
func (r *Repository) ListByDate(ctx context.Context, date string) ([]Record, error) {
	return r.query(ctx, `SELECT `+recordColumns+` FROM `+r.table+`
		WHERE date_recorded = $1::date
		ORDER BY time_recorded DESC, id DESC`, date)
}

// UpdateStatus overwrites the status of one record.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE `+r.table+` SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

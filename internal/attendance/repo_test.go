package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordCols = []string{
	"id", "registration_id", "phone_number", "name", "college_name", "title", "category",
	"date_recorded", "time_recorded", "status", "created_at",
}

var created = time.Date(2026, 10, 18, 4, 30, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T, policy Policy) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, policy), mock
}

func newRecord() Record {
	return Record{
		PhoneNumber:  "9876543210",
		Name:         "A",
		CollegeName:  "X",
		Title:        "Mr.",
		Category:     "Student",
		DateRecorded: "2026-10-18",
		TimeRecorded: "10:00:00",
		Status:       StatusPresent,
	}
}

func expectRegister(mock sqlmock.Sqlmock, count int64, wantRegID string, rec Record, returned string, inserted bool) {
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(registrationLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendance_records`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
	mock.ExpectQuery(`(?s)INSERT INTO attendance_records .*ON CONFLICT \(phone_number\) DO UPDATE SET.*registration_id`).
		WithArgs(wantRegID, rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category, rec.DateRecorded, rec.TimeRecorded).
		WillReturnRows(sqlmock.NewRows(append(recordCols, "inserted")).
			AddRow(int64(count+1), returned, rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category,
				rec.DateRecorded, rec.TimeRecorded, "present", created, inserted))
	mock.ExpectCommit()
}

func TestRegister_EmptyTableGetsFirstID(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	rec := newRecord()
	expectRegister(mock, 0, "AICTE-001", rec, "AICTE-001", true)

	got, inserted, err := repo.Register(context.Background(), rec, "AICTE")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "AICTE-001", got.RegistrationID)
	assert.Equal(t, StatusPresent, got.Status)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_NextIDIsCountPlusOne(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	rec := newRecord()
	rec.PhoneNumber = "9876543211"
	expectRegister(mock, 6, "AICTE-007", rec, "AICTE-007", true)

	got, inserted, err := repo.Register(context.Background(), rec, "AICTE")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "AICTE-007", got.RegistrationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_ExistingPhoneKeepsOriginalID(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	rec := newRecord()
	rec.Name = "A. Renamed"
	// the proposed id is discarded by the conflict update
	expectRegister(mock, 3, "AICTE-004", rec, "AICTE-001", false)

	got, inserted, err := repo.Register(context.Background(), rec, "AICTE")
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "AICTE-001", got.RegistrationID)
	assert.Equal(t, "A. Renamed", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_RollsBackOnError(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, _, err := repo.Register(context.Background(), newRecord(), "AICTE")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDaily_Inserted(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyDaily)
	rec := newRecord()

	mock.ExpectQuery(`(?s)INSERT INTO daily_attendance .*ON CONFLICT \(phone_number, date_recorded\) DO NOTHING`).
		WithArgs(rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category, rec.DateRecorded, rec.TimeRecorded).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(int64(1), "", rec.PhoneNumber, rec.Name, rec.CollegeName, rec.Title, rec.Category, rec.DateRecorded, rec.TimeRecorded, "present", created))

	got, inserted, err := repo.InsertDaily(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), got.ID)
	assert.Empty(t, got.RegistrationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDaily_SameDayReturnsExisting(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyDaily)
	rec := newRecord()

	mock.ExpectQuery(`(?s)INSERT INTO daily_attendance`).
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(`(?s)SELECT .* FROM daily_attendance\s+WHERE phone_number = \$1 AND date_recorded = \$2::date`).
		WithArgs(rec.PhoneNumber, rec.DateRecorded).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(int64(9), "", rec.PhoneNumber, "First", "", "", "", rec.DateRecorded, "08:00:00", "present", created))

	got, inserted, err := repo.InsertDaily(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, "08:00:00", got.TimeRecorded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDaily_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyDaily)
	mock.ExpectQuery(`INSERT INTO daily_attendance`).WillReturnError(errors.New("db err"))

	_, _, err := repo.InsertDaily(context.Background(), newRecord())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestList_OrdersNewestFirst(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)

	mock.ExpectQuery(`(?s)SELECT .* FROM attendance_records\s+ORDER BY date_recorded DESC, time_recorded DESC`).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(int64(2), "AICTE-002", "9876543211", "B", "Y", "Ms.", "Faculty", "2026-10-18", "11:00:00", "absent", created).
			AddRow(int64(1), "AICTE-001", "9876543210", "A", "X", "Mr.", "Student", "2026-10-17", "10:00:00", "present", created))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AICTE-002", got[0].RegistrationID)
	assert.Equal(t, StatusAbsent, got[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(recordCols))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepository_ListByDate(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyDaily)

	mock.ExpectQuery(`(?s)FROM daily_attendance\s+WHERE date_recorded = \$1::date\s+ORDER BY time_recorded DESC`).
		WithArgs("2026-10-18").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(int64(3), "", "9876543210", "Attendee", "", "", "", "2026-10-18", "09:00:00", "present", created))

	got, err := repo.ListByDate(context.Background(), "2026-10-18")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Attendee", got[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByDate_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows(recordCols).
		AddRow(int64(1), "AICTE-001", "9876543210", "A", "X", "Mr.", "Student", "2026-10-18", "10:00:00", "present", created).
		RowError(0, errors.New("broken row")))

	_, err := repo.ListByDate(context.Background(), "2026-10-18")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)

	mock.ExpectExec(`UPDATE attendance_records SET status = \$2 WHERE id = \$1`).
		WithArgs(int64(5), "absent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 5, StatusAbsent))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	mock.ExpectExec(`UPDATE attendance_records`).
		WithArgs(int64(404), "present").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), 404, StatusPresent), ErrNotFound)
}

func TestRepository_UpdateStatus_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, PolicyRegister)
	mock.ExpectExec(`UPDATE`).WillReturnError(sql.ErrConnDone)

	err := repo.UpdateStatus(context.Background(), 1, StatusPresent)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

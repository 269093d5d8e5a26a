package dao

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const withoutMarker = " -- without "

// containsMatcher matches when the actual SQL contains the expected text. An
// expectation of the form `<text> -- without <column>` also requires the
// column to be absent.
var containsMatcher = sqlmock.QueryMatcherFunc(func(expected, actual string) error {
	want, exclude, _ := strings.Cut(expected, withoutMarker)
	if !strings.Contains(actual, want) {
		return fmt.Errorf("%q does not contain %q", actual, want)
	}
	if exclude != "" && strings.Contains(actual, exclude) {
		return fmt.Errorf("%q should not contain %q", actual, exclude)
	}

	return nil
})

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(containsMatcher))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func testParticipation() Participation {
	pickup := "12 rue de la République, Lyon"
	return Participation{
		UserID:            3,
		City:              "Lyon",
		TourStartDate:     time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		TourEndDate:       time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC),
		TourIndex:         31,
		TotalHousingUnits: 5200,
		CostCents:         23400,
		Status:            "pending",
		HasFlyer:          true,
		FlyerKind:         "provided",
		PickupAddress:     &pickup,
	}
}

func undefinedColumn(column string) error {
	return &pgconn.PgError{
		Code:    pgerrcode.UndefinedColumn,
		Message: fmt.Sprintf(`column "%s" of relation "participations" does not exist`, column),
	}
}

func TestParticipationDAO_Insert(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "participations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	created, err := d.Insert(context.Background(), testParticipation())
	require.NoError(t, err)
	assert.Equal(t, uint(7), created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationDAO_Insert_DegradesOnMissingOptionalColumn(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "participations"`).
		WillReturnError(undefinedColumn("pickup_address"))
	mock.ExpectQuery(`INSERT INTO "participations"` + withoutMarker + `"pickup_address"`).
		WillReturnError(undefinedColumn("print_format"))
	mock.ExpectQuery(`INSERT INTO "participations"` + withoutMarker + `"print_format"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

	created, err := d.Insert(context.Background(), testParticipation())
	require.NoError(t, err)
	assert.Equal(t, uint(8), created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationDAO_Insert_RequiredColumnFails(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "participations"`).
		WillReturnError(undefinedColumn("tour_index"))

	_, err := d.Insert(context.Background(), testParticipation())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationDAO_Insert_SameColumnTwiceFails(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "participations"`).
		WillReturnError(undefinedColumn("pickup_address"))
	mock.ExpectQuery(`INSERT INTO "participations"`).
		WillReturnError(undefinedColumn("pickup_address"))

	_, err := d.Insert(context.Background(), testParticipation())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationDAO_InsertSelections(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "sector_selections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	err := d.InsertSelections(context.Background(), 7, []SectorSelection{
		{SectorCode: "691230701", SectorName: "Chapelle 7", HousingUnits: 1200},
		{SectorCode: "691230301", SectorName: "Part-Dieu", HousingUnits: 2890},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, d.InsertSelections(context.Background(), 7, nil))
}

func TestParticipationDAO_InsertSelections_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`INSERT INTO "sector_selections"`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := d.InsertSelections(context.Background(), 7, []SectorSelection{{SectorCode: "1"}})
	assert.ErrorIs(t, err, ErrDuplicateSelection)
}

func TestParticipationDAO_CountDistinctPerSector(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`SELECT sector_code, COUNT(DISTINCT participation_id) AS participants FROM "sector_selections"`).
		WillReturnRows(sqlmock.NewRows([]string{"sector_code", "participants"}).
			AddRow("691230701", 3).
			AddRow("691230301", 1))

	counts, err := d.CountDistinctPerSector(context.Background(), []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []SectorCount{
		{SectorCode: "691230701", Participants: 3},
		{SectorCode: "691230301", Participants: 1},
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())

	counts, err = d.CountDistinctPerSector(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestParticipationDAO_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectExec(`UPDATE "participations" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, d.UpdateStatus(context.Background(), []uint{1, 2}, "confirmed"))
	require.NoError(t, d.UpdateStatus(context.Background(), nil, "confirmed"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipationDAO_FindByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)

	mock.ExpectQuery(`SELECT * FROM "participations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := d.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrParticipationNotFound)
}

func TestParticipationDAO_List(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewParticipationDAO(db)
	start := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE city = $1 AND tour_start_date = $2 AND status <> $3 ORDER BY tour_start_date, id`).
		WithArgs("Lyon", start, "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"id", "city", "status"}).
			AddRow(1, "Lyon", "pending").
			AddRow(2, "Lyon", "confirmed"))

	got, err := d.List(context.Background(), ParticipationFilter{City: "Lyon", StartDate: &start, ExcludeStatus: "cancelled"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDAO_Insert_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewUserDAO(db)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uni_users_email"})

	_, err := d.Insert(context.Background(), User{Email: "a@b.fr", Password: "x", Name: "A"})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestUserDAO_Confirm_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	d := NewUserDAO(db)

	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, d.Confirm(context.Background(), 5), ErrUserNotFound)
}

func TestUndefinedOptionalColumn(t *testing.T) {
	column, ok := undefinedOptionalColumn(fmt.Errorf("wrapped: %w", undefinedColumn("print_format")))
	assert.True(t, ok)
	assert.Equal(t, "print_format", column)

	_, ok = undefinedOptionalColumn(undefinedColumn("city"))
	assert.False(t, ok)

	_, ok = undefinedOptionalColumn(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	assert.False(t, ok)
}

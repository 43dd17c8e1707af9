package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var userCols = []string{"id", "external_id", "name", "created_at", "updated_at"}

func TestPostgresCreateIfAbsent_ReturnsExistingOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO users .* ON CONFLICT \(external_id\) DO UPDATE`).
		WithArgs("new-id", "ext_1", PlaceholderName, now).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("winner-id", "ext_1", PlaceholderName, now, now))

	u, err := repo.CreateIfAbsent(context.Background(), User{ID: "new-id", ExternalID: "ext_1", Name: PlaceholderName, CreatedAt: now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "winner-id" {
		t.Fatalf("expected the existing owner id, got %q", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByExternalID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`FROM users WHERE external_id = \$1`).WithArgs("missing").WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(`FROM users WHERE external_id = \$1`).WithArgs("boom").WillReturnError(errors.New("timeout"))

	if _, err := repo.GetByExternalID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByExternalID(context.Background(), "boom"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

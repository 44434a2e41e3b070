package promo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

func setupPromoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ddl := `
		CREATE TABLE promo_codes (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			discount_type TEXT NOT NULL,
			discount_value INTEGER NOT NULL,
			min_order_pence INTEGER NOT NULL DEFAULT 0,
			max_uses INTEGER,
			used_count INTEGER NOT NULL DEFAULT 0,
			vendor_id TEXT,
			expires_at DATETIME,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func insertPromo(t *testing.T, db *gorm.DB, id uuid.UUID, code string, maxUses *int, usedCount int, active bool) {
	t.Helper()
	err := db.Exec(`
		INSERT INTO promo_codes (id, code, discount_type, discount_value, max_uses, used_count, active)
		VALUES (?, ?, 'percentage', 10, ?, ?, ?)
	`, id, code, maxUses, usedCount, active).Error
	if err != nil {
		t.Fatalf("insert promo: %v", err)
	}
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	db := setupPromoDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	insertPromo(t, db, id, "save10", nil, 0, true)

	promo, err := repo.FindByCode(context.Background(), "  SAVE10 ")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if promo.ID != id {
		t.Fatalf("expected promo %s, got %s", id, promo.ID)
	}
}

func TestFindByCodeNotFound(t *testing.T) {
	db := setupPromoDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByCode(context.Background(), "nope")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestIncrementUsageStopsAtCap(t *testing.T) {
	db := setupPromoDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	maxUses := 1
	insertPromo(t, db, id, "lastone", &maxUses, 0, true)

	updated, err := repo.IncrementUsage(context.Background(), id)
	if err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if !updated {
		t.Fatal("expected first increment to succeed")
	}

	updated, err = repo.IncrementUsage(context.Background(), id)
	if err != nil {
		t.Fatalf("second increment: %v", err)
	}
	if updated {
		t.Fatal("expected second increment to be rejected at the cap")
	}
}

func TestIncrementUsageUnlimitedCode(t *testing.T) {
	db := setupPromoDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	insertPromo(t, db, id, "forever", nil, 41, true)

	updated, err := repo.IncrementUsage(context.Background(), id)
	if err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if !updated {
		t.Fatal("expected unlimited code to keep redeeming")
	}
}

func TestIncrementUsageSkipsInactiveCode(t *testing.T) {
	db := setupPromoDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	insertPromo(t, db, id, "retired", nil, 0, false)

	updated, err := repo.IncrementUsage(context.Background(), id)
	if err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if updated {
		t.Fatal("expected inactive code to be rejected")
	}
}

package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "customer_profiles_customer_id_key"}

	if !IsUniqueViolation(dup, "") {
		t.Fatal("expected any-constraint match for 23505")
	}
	if !IsUniqueViolation(dup, "customer_profiles_customer_id_key") {
		t.Fatal("expected named-constraint match")
	}
	if IsUniqueViolation(dup, "orders_pkey") {
		t.Fatal("expected mismatch for a different constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}

	wrapped := fmt.Errorf("create profile: %w", dup)
	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected match through wrapping")
	}
}

func TestIsUniqueViolationFallback(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: customer_profiles.customer_id"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "orders_pkey"`), "orders_pkey") {
		t.Fatal("expected postgres message to match named constraint")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error must not match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error must not match")
	}
}

package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platebite/platebite-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test"})
}

func TestCheckoutStepsSkipsAddressForCollection(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fulfilment_type=collection", nil)
	CheckoutSteps(testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Steps []string `json:"steps"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Steps) != 4 {
		t.Fatalf("expected 4 collection steps, got %v", envelope.Data.Steps)
	}
	for _, step := range envelope.Data.Steps {
		if step == "address" {
			t.Fatal("collection sequence must not contain the address step")
		}
	}
}

func TestCheckoutNextStepAdvances(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fulfilment_type=delivery&current=detail", nil)
	CheckoutNextStep(testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Next string `json:"next"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Next != "address" {
		t.Fatalf("expected address after detail on delivery, got %q", envelope.Data.Next)
	}
}

func TestCheckoutNextStepAtConfirmationConflicts(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fulfilment_type=delivery&current=confirmation", nil)
	CheckoutNextStep(testLogger())(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCheckoutStepsRejectsUnknownFulfilment(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?fulfilment_type=teleport", nil)
	CheckoutSteps(testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func TestWriteSuccessMergesPayload(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, Payload{"cart": map[string]string{"id": "c1"}})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if _, ok := body["message"]; ok {
		t.Fatalf("message should be omitted when empty")
	}
	if body["cart"].(map[string]any)["id"] != "c1" {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestWriteSuccessStatusCarriesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, "Order placed successfully", Payload{"success": false})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	body := decodeBody(t, w)
	if body["message"] != "Order placed successfully" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if body["success"] != true {
		t.Fatalf("payload must not override success flag")
	}
}

func TestWriteErrorUsesUserFacingMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInvalidState, "Cannot cancel order in 'shipped' status")
	WriteError(context.Background(), logger.Nop(), w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Fatalf("expected success=false")
	}
	if body["message"] != "Cannot cancel order in 'shipped' status" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if _, ok := body["code"]; ok {
		t.Fatalf("error code must not be exposed")
	}
}

func TestWriteErrorIncludesValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"quantity": "is required"})
	WriteError(context.Background(), nil, w, err)

	body := decodeBody(t, w)
	details, ok := body["details"].(map[string]any)
	if !ok || details["quantity"] != "is required" {
		t.Fatalf("expected validation details, got %v", body["details"])
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	body := decodeBody(t, w)
	if body["message"] != "internal server error" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if _, ok := body["details"]; ok {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteErrorMapsDependencyToServiceUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("mongo timeout"), "load cart")
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 but got %d", got)
	}
	if body := decodeBody(t, w); body["message"] != "dependency unavailable" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

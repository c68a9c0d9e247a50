package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code       Code
		status     int
		publicMsg  string
		retryable  bool
		detailsOK  bool
		userFacing bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true, userFacing: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", userFacing: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied", userFacing: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", userFacing: true},
		{code: CodeOutOfStock, status: http.StatusBadRequest, publicMsg: "insufficient stock", userFacing: true},
		{code: CodeInvalidState, status: http.StatusBadRequest, publicMsg: "operation not allowed in current state", userFacing: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", userFacing: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.UserFacing != tt.userFacing {
			t.Fatalf("code %s expected user facing %v got %v", tt.code, tt.userFacing, meta.UserFacing)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load cart")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if !strings.Contains(wrapped.Error(), "boom") {
		t.Fatalf("expected cause in error string, got %q", wrapped.Error())
	}

	formatted := Newf(CodeOutOfStock, "Only %d units available", 7)
	if formatted.Message() != "Only 7 units available" {
		t.Fatalf("unexpected formatted message %q", formatted.Message())
	}
}

func TestAsAndIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInvalidState, "Cannot create order with empty cart"))

	typed := As(err)
	if typed == nil || typed.Code() != CodeInvalidState {
		t.Fatalf("expected invalid state error, got %v", typed)
	}
	if !IsCode(err, CodeInvalidState) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("did not expect IsCode to match a different code")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not be typed")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection reset"), "persist order")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
	if Dump(nil).TopMessage != "" {
		t.Fatal("expected empty dump for nil error")
	}
}

package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAlreadyExists_Success(t *testing.T) {
	err := AlreadyExists("user")
	if err.Code != CodeAlreadyExists {
		t.Errorf("expected ALREADY_EXISTS, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "user" {
		t.Errorf("expected resource=user, got %v", err.Details["resource"])
	}
}

func TestNotFound_EmptyID(t *testing.T) {
	err := NotFound("post", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection lost")
	err := Internal(cause)
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to see through to the cause")
	}
}

func TestTokenErrors_Are401(t *testing.T) {
	if got := TokenExpired().HTTPStatus; got != http.StatusUnauthorized {
		t.Errorf("TokenExpired status = %d, want 401", got)
	}
	if got := InvalidToken().HTTPStatus; got != http.StatusUnauthorized {
		t.Errorf("InvalidToken status = %d, want 401", got)
	}
	if TokenExpired().Message == InvalidToken().Message {
		t.Error("expected distinguishable expired vs invalid messages")
	}
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", Unauthorized(""))
	if !IsCode(wrapped, CodeUnauthorized) {
		t.Error("IsCode should match through wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode matched the wrong code")
	}
}

func TestToResponse_OmitsCause(t *testing.T) {
	err := Internal(fmt.Errorf("secret detail")).WithDetail("op", "save")
	resp := err.ToResponse()
	if resp.Error.Code != CodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Message != err.Message {
		t.Errorf("unexpected message %q", resp.Error.Message)
	}
	if resp.Error.Details["op"] != "save" {
		t.Error("expected detail to survive")
	}
}

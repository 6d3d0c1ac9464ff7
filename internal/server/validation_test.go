package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type sampleRequest struct {
	Username string `json:"username" binding:"required,min=3,username"`
	Email    string `json:"email" binding:"required,email"`
}

func validate(t *testing.T, req sampleRequest) error {
	t.Helper()
	RegisterValidations()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		t.Fatal("binding validator is not validator/v10")
	}
	return v.Struct(req)
}

func TestRegisterValidations_UsernameRule(t *testing.T) {
	err := validate(t, sampleRequest{Username: "jane.doe-42", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("valid username rejected: %v", err)
	}

	err = validate(t, sampleRequest{Username: "jane doe", Email: "jane@example.com"})
	if err == nil {
		t.Fatal("username with space accepted")
	}
}

func TestBindingError_FieldMessages(t *testing.T) {
	err := validate(t, sampleRequest{Username: "ab", Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	appErr := BindingError(err)
	if appErr == nil {
		t.Fatal("BindingError returned nil")
	}
	msg := appErr.Message
	if !strings.Contains(msg, "username must be at least 3 characters") {
		t.Errorf("message = %q, want username length rule", msg)
	}
	if !strings.Contains(msg, "email must be a valid email address") {
		t.Errorf("message = %q, want email rule", msg)
	}
}

func TestBindingError_NonValidatorError(t *testing.T) {
	appErr := BindingError(errors.New("unexpected EOF"))
	if appErr.Message != "malformed request body" {
		t.Errorf("message = %q", appErr.Message)
	}
}

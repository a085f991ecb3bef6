package handler

import (
	"strings"
	"testing"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	bad := "not-an-email"
	err := v.Validate(&updateUserRequest{Email: &bad})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "email must be a valid email") {
		t.Fatalf("unexpected message: %v", err)
	}

	empty := ""
	err = v.Validate(&updateUserRequest{FirstName: &empty})
	if err == nil || !strings.Contains(err.Error(), "first_name must be at least 1 characters") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidator_AcceptsOmittedFields(t *testing.T) {
	if err := NewValidator().Validate(&updateUserRequest{}); err != nil {
		t.Fatalf("omitted optional fields must pass validation: %v", err)
	}
	if err := NewValidator().Validate(&registerRequest{Username: "alice"}); err != nil {
		t.Fatalf("missing fields are reported by the service, got %v", err)
	}
}

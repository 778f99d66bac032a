package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewValidationErrorNilWhenEmpty(t *testing.T) {
	if err := NewValidationError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	err := NewValidationError([]FieldError{{Field: "name", Message: "This field is required", Type: "required"}})
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Details) != 1 {
		t.Fatalf("expected one detail, got %v", err)
	}
}

func TestBatchErrorOrdersIntents(t *testing.T) {
	be := &BatchError{}
	if !be.Empty() {
		t.Fatal("new batch error should be empty")
	}
	be.Add(2, FieldError{Field: "amount", Message: "bad"})
	be.Add(0, FieldError{Field: "description", Message: "missing"})
	msg := be.Error()
	if strings.Index(msg, "[0]") > strings.Index(msg, "[2]") {
		t.Errorf("intents not ordered: %s", msg)
	}
}

func TestStorageWrapsOnce(t *testing.T) {
	base := fmt.Errorf("connection reset")
	err := Storage("create account", base)
	err = Storage("outer", err)
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "create account" {
		t.Fatalf("unexpected wrap: %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("storage error should unwrap to the cause")
	}
	if Storage("x", nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestIntegrityIsErrIntegrity(t *testing.T) {
	err := Integrity("email", "an account with this email already exists")
	if !errors.Is(err, ErrIntegrity) {
		t.Fatal("integrity error should match ErrIntegrity")
	}
}

package errors

import (
	"fmt"
	"testing"
)

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	r.Register(ErrorDefinition{
		Code:    "test_error",
		Type:    ErrorTypeValidation,
		Message: "default message",
	})

	err := r.Create("test_error")
	if err == nil {
		t.Fatal("Create() returned nil for registered code")
	}
	if err.Type != ErrorTypeValidation {
		t.Errorf("Create() type = %v, want %v", err.Type, ErrorTypeValidation)
	}
	if err.Code != "test_error" {
		t.Errorf("Create() code = %v, want test_error", err.Code)
	}
	if err.Message != "default message" {
		t.Errorf("Create() message = %v, want default message", err.Message)
	}

	if got := r.Create("missing"); got != nil {
		t.Errorf("Create(missing) = %v, want nil", got)
	}
}

func TestRegistryCreateWithMessage(t *testing.T) {
	r := NewRegistry()
	r.Register(ErrorDefinition{Code: "test_error", Type: ErrorTypeNotFound, Message: "default"})

	err := r.CreateWithMessage("test_error", "custom message")
	if err == nil {
		t.Fatal("CreateWithMessage() returned nil for registered code")
	}
	if err.Message != "custom message" {
		t.Errorf("CreateWithMessage() message = %v, want custom message", err.Message)
	}
	if err.Code != "test_error" || err.Type != ErrorTypeNotFound {
		t.Errorf("CreateWithMessage() lost definition fields: %+v", err)
	}

	if got := r.CreateWithMessage("missing", "x"); got != nil {
		t.Errorf("CreateWithMessage(missing) = %v, want nil", got)
	}
}

func TestRegistryCreateWithCause(t *testing.T) {
	r := NewRegistry()
	r.Register(ErrorDefinition{Code: "test_error", Type: ErrorTypeConfig, Message: "default"})

	cause := fmt.Errorf("underlying")
	err := r.CreateWithCause("test_error", cause)
	if err == nil {
		t.Fatal("CreateWithCause() returned nil for registered code")
	}
	if err.Cause != cause {
		t.Errorf("CreateWithCause() cause = %v, want %v", err.Cause, cause)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(ErrorDefinition{Code: "test_error", Type: ErrorTypeValidation, Message: "first"})
	r.Register(ErrorDefinition{Code: "test_error", Type: ErrorTypeConfig, Message: "second"})

	err := r.Create("test_error")
	if err.Type != ErrorTypeConfig || err.Message != "second" {
		t.Errorf("Create() after overwrite = %+v, want second definition", err)
	}

	if got := len(r.List()); got != 1 {
		t.Errorf("List() length = %d, want 1", got)
	}
}

func TestDefaultRegistryCodes(t *testing.T) {
	tests := []struct {
		code string
		typ  ErrorType
	}{
		{CodeEntryNotFound, ErrorTypeNotFound},
		{CodeEntryNotEditable, ErrorTypeValidation},
		{CodeInvalidArgument, ErrorTypeValidation},
		{CodeBadTimeZone, ErrorTypeConfig},
		{CodeFileReadError, ErrorTypeConfig},
		{CodeFileParseError, ErrorTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := Create(tt.code)
			if err == nil {
				t.Fatalf("Create(%q) = nil, code not registered", tt.code)
			}
			if err.Type != tt.typ {
				t.Errorf("Create(%q) type = %v, want %v", tt.code, err.Type, tt.typ)
			}
		})
	}
}

func TestErrorFactories(t *testing.T) {
	notFound := ErrEntryNotFound("Cabin")
	if !IsNotFound(notFound) {
		t.Error("ErrEntryNotFound() is not a not found error")
	}
	if GetCode(notFound) != CodeEntryNotFound {
		t.Errorf("ErrEntryNotFound() code = %v", GetCode(notFound))
	}
	if want := "integration entry does not exist or is not loaded: Cabin"; notFound.Message != want {
		t.Errorf("ErrEntryNotFound() message = %v, want %v", notFound.Message, want)
	}

	invalid := ErrInvalidArgument("latitude out of range")
	if !IsValidation(invalid) || GetCode(invalid) != CodeInvalidArgument {
		t.Errorf("ErrInvalidArgument() = %+v", invalid)
	}

	cause := fmt.Errorf("unknown zone")
	badTZ := ErrBadTimeZone("Mars/Olympus", cause)
	if !IsConfig(badTZ) || GetCode(badTZ) != CodeBadTimeZone {
		t.Errorf("ErrBadTimeZone() = %+v", badTZ)
	}
	if badTZ.Cause != cause {
		t.Errorf("ErrBadTimeZone() cause = %v, want %v", badTZ.Cause, cause)
	}
}

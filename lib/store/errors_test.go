package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NewNotFoundError("users", "alice"), "Not found for table:users, key:alice"},
		{NewInvalidCommandError("unknown message type"), "Command is invalid: `unknown message type`"},
		{NewConvertError("string", "integer"), "Cannot convert value string to integer"},
		{NewStorageError("set", "users", "alice", errors.New("disk full")), "Cannot process command set with table: users, key: alice. Error: disk full"},
		{NewEncodeError(errors.New("boom")), "Failed to encode value: boom"},
		{NewDecodeError(errors.New("truncated")), "Failed to decode value: truncated"},
		{NewInternalError("nil store"), "Internal error: nil store"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.err.Code, got, tt.want)
		}
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Errorf("AsError(nil) should be nil")
	}

	wrapped := fmt.Errorf("context: %w", NewNotFoundError("t", "k"))
	if e := AsError(wrapped); e.Code != RetCNotFound {
		t.Errorf("Expected NotFound from wrapped error, got %v", e)
	}
	if !IsNotFound(wrapped) {
		t.Errorf("IsNotFound should see through wrapping")
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Errorf("errors.Is should match on the code")
	}

	if e := AsError(errors.New("foreign")); e.Code != RetCInternal || e.Msg != "foreign" {
		t.Errorf("Expected foreign error to become Internal, got %v", e)
	}
}

func TestValidateTable(t *testing.T) {
	if err := ValidateTable("users"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := ValidateTable(""); err != nil {
		t.Errorf("Empty table name should be accepted: %v", err)
	}
	if err := ValidateTable("a:b"); AsError(err).Code != RetCInvalidCommand {
		t.Errorf("Expected InvalidCommand, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	errs := []*Error{
		NewNotFoundError("users", "alice"),
		NewNotFoundError("users", "a, key:b"),
		NewInvalidCommandError("unknown message type"),
		NewConvertError("string", "integer"),
		NewConvertError("tag 42", "value"),
		NewStorageError("set", "users", "alice", errors.New("disk full")),
		NewEncodeError(errors.New("boom")),
		NewDecodeError(errors.New("truncated")),
		NewInternalError("nil store"),
	}
	for _, want := range errs {
		got := ParseError(want.Error())
		if got == nil || *got != *want {
			t.Errorf("ParseError(%q) = %+v, want %+v", want.Error(), got, want)
		}
	}

	for _, msg := range []string{"", "connection reset", "Not found for table:users", "Command is invalid: `open"} {
		if got := ParseError(msg); got != nil {
			t.Errorf("ParseError(%q) = %+v, want nil", msg, got)
		}
	}
}

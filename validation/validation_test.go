package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "John").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorRequiredUUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", uuid.New().String(), false},
		{"empty", "", true},
		{"malformed", "not-a-uuid", true},
		{"nil uuid", uuid.Nil.String(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New().RequiredUUID("id", tt.value).HasErrors(); got != tt.wantErr {
				t.Errorf("expected errors=%v, got %v", tt.wantErr, got)
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"json", "console"}
	if New().OneOf("format", "json", allowed).HasErrors() {
		t.Error("expected json to be allowed")
	}
	if New().OneOf("format", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	if !New().OneOf("format", "xml", allowed).HasErrors() {
		t.Error("expected xml to be rejected")
	}
}

func TestValidatorErr(t *testing.T) {
	if err := New().Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	v := New()
	v.Required("name", "")
	v.Custom(false, "count", "must be positive")
	err := v.Err()

	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(ve.Fields) != 2 || !ve.Has("name") || !ve.Has("count") {
		t.Errorf("unexpected fields %+v", ve.Fields)
	}
	want := "validation: name: is required; count: must be positive"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !IsValidation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("expected IsValidation through wrapping")
	}
}

func TestParseUUIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids, err := ParseUUIDs("guid", []string{a.String(), b.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("unexpected ids %v", ids)
	}

	_, err = ParseUUIDs("guid", []string{a.String(), "bad", ""})
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !ve.Has("guid[1]") || !ve.Has("guid[2]") || ve.Has("guid[0]") {
		t.Errorf("unexpected fields %+v", ve.Fields)
	}
}

type inner struct {
	BaseAddress string `mapstructure:"base_address" validate:"required,url"`
	Serial      string `mapstructure:"certificate_serial" validate:"omitempty,hexadecimal"`
}

type outer struct {
	Name   string `json:"name" validate:"required,max=5"`
	Level  string `json:"level" validate:"oneof=debug info"`
	WebAPI inner  `mapstructure:"webapi"`
	Count  int    `validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	valid := outer{Name: "svc", Level: "info", WebAPI: inner{BaseAddress: "https://h/"}}
	if err := Validate(valid); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	bad := outer{Name: "too-long", Level: "trace", WebAPI: inner{BaseAddress: "nope", Serial: "xyz"}, Count: -1}
	err := Validate(bad)
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *Error, got %v", err)
	}
	for _, field := range []string{"name", "level", "webapi.base_address", "webapi.certificate_serial", "count"} {
		if !ve.Has(field) {
			t.Errorf("expected %q to be reported, got %+v", field, ve.Fields)
		}
	}
	if !strings.Contains(err.Error(), "webapi.base_address: must be a valid URL") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

package errors

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid single", "lfo_1", false},
		{"valid nested", "dualvco_1.vco_1", false},
		{"valid deep", "a.b.c.d", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 1100), true},
		{"leading dot", ".a", true},
		{"trailing dot", "a.", true},
		{"double dot", "a..b", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"sine", false},
		{"vco_1", false},
		{"", true},
		{"a.b", true},
		{"a\tb", true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeMalformedDelta,
		ErrCodePropertyConflict,
		ErrCodePathNotFound,
		ErrCodePathMissingAncestor,
		ErrCodePathAlreadyExists,
		ErrCodeNodeHasChildren,
		ErrCodeAmbiguousArc,
		ErrCodePropertyNotFound,
		ErrCodeDuplicateDelete,
		ErrCodePathCollision,
		ErrCodePathInUse,
		ErrCodeInvalidInput,
		ErrCodeInvalidPath,
		ErrCodeStaleRevision,
		ErrCodeNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

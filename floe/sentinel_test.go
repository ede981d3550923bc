package floe

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrNoSnapshot", ErrNoSnapshot, "no snapshot"},
		{"ErrPathExists", ErrPathExists, "path exists"},
		{"ErrInvalidPath", ErrInvalidPath, "invalid path: escapes storage root"},
		{"ErrMetadataInvalid", ErrMetadataInvalid, "invalid table metadata"},
		{"ErrDecode", ErrDecode, "decode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSentinelErrors_IdentityThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrNoSnapshot", ErrNoSnapshot},
		{"ErrPathExists", ErrPathExists},
		{"ErrInvalidPath", ErrInvalidPath},
		{"ErrMetadataInvalid", ErrMetadataInvalid},
		{"ErrDecode", ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("floe: outer context: %w", tt.err)
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(%v, %s) = false after wrapping", wrapped, tt.name)
			}
		})
	}
}

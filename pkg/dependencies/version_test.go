package dependencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		key      Key
		expected string
		wantErr  bool
	}{
		{
			name:     "cargo stable",
			output:   "cargo 1.74.1 (ecb9851af 2023-10-18)",
			key:      CARGO,
			expected: "1.74.1",
		},
		{
			name:     "cargo nightly",
			output:   "cargo 1.76.0-nightly (26333c732 2023-12-14)",
			key:      CARGO,
			expected: "1.76.0",
		},
		{
			name:     "rustc",
			output:   "rustc 1.74.1 (a28077b28 2023-12-04)",
			key:      RUSTC,
			expected: "1.74.1",
		},
		{
			name:     "valgrind",
			output:   "valgrind-3.19.0",
			key:      VALGRIND,
			expected: "3.19.0",
		},
		{
			name:    "no version in output",
			output:  "command not found",
			key:     CARGO,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var re = cargoRegex
			switch tt.key {
			case RUSTC:
				re = rustcRegex
			case VALGRIND:
				re = valgrindRegex
			}

			version, err := extractVersion(tt.output, re, tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, version.String())
		})
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      Schemaf("missing required column %q", "phase"),
			expected: `[SCHEMA] missing required column "phase"`,
		},
		{
			name:     "with cause",
			err:      IO("open spec file", fs.ErrNotExist),
			expected: "[IO] open spec file: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fs.ErrNotExist
	err := IO("open spec file", cause)

	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"schema error", Schemaf("bad table"), KindSchema},
		{"structural error", Structuralf("bad step"), KindStructural},
		{"config error", Configf("duplicate checkpoint"), KindConfig},
		{"wrapped error", fmt.Errorf("load: %w", Configf("bad spec")), KindConfig},
		{"plain error", stderrors.New("nope"), Kind("")},
		{"nil error", nil, Kind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("build cycles: %w", Structuralf("step 3 has 149 rows"))

	assert.True(t, IsKind(err, KindStructural))
	assert.False(t, IsKind(err, KindSchema))
}

func TestError_WithContext(t *testing.T) {
	err := Structuralf("unexpected row count").
		WithContext("subject", "SUB01").
		WithContext("step", 3)

	require.NotNil(t, err.Context)
	assert.Equal(t, "SUB01", err.Context["subject"])
	assert.Equal(t, 3, err.Context["step"])
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		width    int
		height   int
		expected bool
	}{
		{"top-left corner", 0, 0, 10, 10, true},
		{"bottom-right corner", 9, 9, 10, 10, true},
		{"negative x", -1, 5, 10, 10, false},
		{"x equals width", 10, 5, 10, 10, false},
		{"y equals height", 5, 10, 10, 10, false},
		{"zero width", 0, 0, 0, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidCoordinate(tt.x, tt.y, tt.width, tt.height))
			assert.Equal(t, tt.expected, IsValidCoordinateStruct(core.NewCoordinate(tt.x, tt.y), tt.width, tt.height))
		})
	}
}

func TestValidatePlayerName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"simple", "Alice", "Alice", nil},
		{"trimmed", "  Bob  ", "Bob", nil},
		{"spaces dashes underscores", "The_Red - 2", "The_Red - 2", nil},
		{"min length", "ab", "ab", nil},
		{"max length", "abcdefghijklmnopqrst", "abcdefghijklmnopqrst", nil},
		{"too short", "a", "", ErrNameTooShort},
		{"only spaces", "     ", "", ErrNameTooShort},
		{"too long", "abcdefghijklmnopqrstu", "", ErrNameTooLong},
		{"markup", "<script>", "", ErrNameChars},
		{"accents", "Zoé", "", ErrNameChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePlayerName(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, core.ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRoomCode(t *testing.T) {
	assert.True(t, ValidateRoomCode("ABC123"))
	assert.True(t, ValidateRoomCode(" abc123 "), "codes are normalized first")
	assert.False(t, ValidateRoomCode("ABC12"))
	assert.False(t, ValidateRoomCode("ABC1234"))
	assert.False(t, ValidateRoomCode("ABC-12"))
	assert.Equal(t, "XYZ789", NormalizeRoomCode(" xyz789"))
}

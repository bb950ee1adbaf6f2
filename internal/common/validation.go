package common

import (
	"errors"
	"regexp"
	"strings"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// Name and room code limits
const (
	MinNameLength  = 2
	MaxNameLength  = 20
	RoomCodeLength = 6
	RoomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)
	roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

	ErrNameTooShort = errors.New("name too short (min 2 characters)")
	ErrNameTooLong  = errors.New("name too long (max 20 characters)")
	ErrNameChars    = errors.New("name contains forbidden characters")
)

// ValidatePlayerName trims name and checks its length and character set.
// The returned errors wrap core.ErrInvalidName.
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case len(trimmed) < MinNameLength:
		return "", errors.Join(core.ErrInvalidName, ErrNameTooShort)
	case len(trimmed) > MaxNameLength:
		return "", errors.Join(core.ErrInvalidName, ErrNameTooLong)
	case !namePattern.MatchString(trimmed):
		return "", errors.Join(core.ErrInvalidName, ErrNameChars)
	}
	return trimmed, nil
}

// NormalizeRoomCode trims and upper-cases a user supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode reports whether code, once normalized, is six characters of A-Z0-9.
func ValidateRoomCode(code string) bool {
	return roomCodePattern.MatchString(NormalizeRoomCode(code))
}

// IsValidCoordinate checks if the given coordinates are within the bounds of the grid
func IsValidCoordinate(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}

// IsValidCoordinateStruct checks if the given coordinate struct is within the bounds of the grid
func IsValidCoordinateStruct(c core.Coordinate, width, height int) bool {
	return c.IsValid(width, height)
}

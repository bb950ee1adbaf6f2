package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"sentinel", ErrInsufficientGold, "Insufficient gold"},
		{"wrapped sentinel", fmt.Errorf("build city: %w", ErrInsufficientGold), "Insufficient gold"},
		{"adjacency", ErrNotAdjacent, "Must be adjacent to your territory"},
		{"unknown error falls back to message", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reason(tt.err))
		})
	}
}

func TestEverySentinelHasReason(t *testing.T) {
	for sentinel, reason := range reasons {
		assert.NotEmpty(t, reason, "sentinel %v", sentinel)
		assert.NotEqual(t, sentinel.Error(), reason, "reason should be player-facing text")
	}
}

func TestWrapActionError(t *testing.T) {
	assert.Nil(t, WrapActionError("expand", "a", 1, 2, nil))

	wrapped := WrapActionError("expand", "a", 5, 3, ErrNotOwned)
	require.NotNil(t, wrapped)
	assert.Equal(t, "actor a: expand at (5,3): cell not owned by actor", wrapped.Error())
	assert.True(t, errors.Is(wrapped, ErrNotOwned))
	assert.Equal(t, "Not your territory", Reason(wrapped))
}

func TestParseBuilding(t *testing.T) {
	for _, b := range AllBuildings {
		parsed, err := ParseBuilding(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}

	_, err := ParseBuilding("castle")
	assert.ErrorIs(t, err, ErrUnknownBuilding)

	var b BuildingType
	require.NoError(t, b.UnmarshalText([]byte("port")))
	assert.Equal(t, BuildingPort, b)
	require.NoError(t, b.UnmarshalText(nil))
	assert.Equal(t, BuildingNone, b)
}

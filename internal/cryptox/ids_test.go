package cryptox

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	farmerIDPattern   = regexp.MustCompile(`^ZM[0-9A-F]{8}$`)
	operatorIDPattern = regexp.MustCompile(`^OP[0-9A-F]{6}$`)
)

func TestNewFarmerID_FormatAndUniqueness(t *testing.T) {
	const n = 10_000
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		id, err := NewFarmerID()
		require.NoError(t, err)
		require.Regexp(t, farmerIDPattern, id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s after %d draws", id, i)
		seen[id] = struct{}{}
	}
}

func TestNewOperatorID_Format(t *testing.T) {
	id, err := NewOperatorID()
	require.NoError(t, err)
	assert.Regexp(t, operatorIDPattern, id)
}

func TestNewSecureToken(t *testing.T) {
	a, err := NewSecureToken(32)
	require.NoError(t, err)
	b, err := NewSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestNewFarmerID_RandError(t *testing.T) {
	orig := randReader
	randReader = func(b []byte) (int, error) { return 0, errors.New("no entropy") }
	defer func() { randReader = orig }()

	_, err := NewFarmerID()
	assert.Error(t, err)
}

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	t.Run("parses clauses in order", func(t *testing.T) {
		pairs, err := ParsePairs("Name=Chai;Discontinued=false")
		require.NoError(t, err)

		require.Len(t, pairs, 2)
		assert.Equal(t, Pair{Key: "Name", Value: "Chai"}, pairs[0])
		assert.Equal(t, Pair{Key: "Discontinued", Value: "false"}, pairs[1])
	})

	t.Run("trims keys and values", func(t *testing.T) {
		pairs, err := ParsePairs("  Name = Chai ; Status = New ")
		require.NoError(t, err)

		require.Len(t, pairs, 2)
		assert.Equal(t, Pair{Key: "Name", Value: "Chai"}, pairs[0])
		assert.Equal(t, Pair{Key: "Status", Value: "New"}, pairs[1])
	})

	t.Run("empty input yields no pairs", func(t *testing.T) {
		pairs, err := ParsePairs("")
		require.NoError(t, err)
		assert.Empty(t, pairs)

		pairs, err = ParsePairs("   ")
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("skips empty clauses from trailing semicolons", func(t *testing.T) {
		pairs, err := ParsePairs("Name=Chai;;")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
	})

	t.Run("allows empty values", func(t *testing.T) {
		pairs, err := ParsePairs("Description=")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, Pair{Key: "Description", Value: ""}, pairs[0])
	})

	t.Run("equals sign inside a value survives", func(t *testing.T) {
		// Only the first '=' splits; the rest belongs to the value.
		pairs, err := ParsePairs("Formula=a=b")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, "a=b", pairs[0].Value)
	})

	t.Run("clause without equals is rejected with guidance", func(t *testing.T) {
		_, err := ParsePairs("Name")
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, err.Error(), "key=value")
		assert.Contains(t, err.Error(), `"Name"`)
	})

	t.Run("clause without key is rejected", func(t *testing.T) {
		_, err := ParsePairs("=value")
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestPairsFromMap(t *testing.T) {
	pairs := PairsFromMap(map[string]any{
		"unit_price":   float64(18),
		"name":         "Chai; the original",
		"discontinued": false,
		"notes":        nil,
	})

	// Sorted by key for deterministic processing.
	require.Len(t, pairs, 4)
	assert.Equal(t, Pair{Key: "discontinued", Value: "false"}, pairs[0])
	assert.Equal(t, Pair{Key: "name", Value: "Chai; the original"}, pairs[1])
	assert.Equal(t, Pair{Key: "notes", Value: ""}, pairs[2])
	assert.Equal(t, Pair{Key: "unit_price", Value: "18"}, pairs[3])
}

func TestArgText(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string passes through", "Chai", "Chai"},
		{"integral float has no decimal point", float64(42), "42"},
		{"fractional float keeps digits", 19.95, "19.95"},
		{"bool", true, "true"},
		{"nil is empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, argText(tt.input))
		})
	}
}

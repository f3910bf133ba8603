package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIndexParsesNumberedIds(t *testing.T) {
	for id, want := range map[string]int{
		"S01": 1,
		"S03": 3,
		"S12": 12,
		"7":   7,
	} {
		got := sessionIndex(id)
		require.NotNil(t, got, "id %q", id)
		assert.Equal(t, want, *got, "id %q", id)
	}
}

func TestSessionIndexOpaqueIdsStoreNull(t *testing.T) {
	// NULL indexes sort after numbered sessions, so an opaque id never
	// displaces the chronological series.
	assert.Nil(t, sessionIndex("baseline"))
	assert.Nil(t, sessionIndex(""))
	assert.Nil(t, sessionIndex("S0x"))
}

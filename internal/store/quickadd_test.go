package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickAddsDefaultUntilSaved(t *testing.T) {
	s := openTestStore(t)

	assert.Equal(t, DefaultQuickAdds, s.QuickAdds())

	require.NoError(t, s.SaveQuickAdds([]QuickAdd{{Name: "Mug", Amount: 350}}))
	assert.Equal(t, []QuickAdd{{Name: "Mug", Amount: 350}}, s.QuickAdds())
}

func TestAddQuickAddReplacesByName(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddQuickAdd(QuickAdd{Name: "Mug", Amount: 350}))
	require.NoError(t, s.AddQuickAdd(QuickAdd{Name: "mug", Amount: 400}))

	q, ok := s.LookupQuickAdd("MUG")
	require.True(t, ok)
	assert.Equal(t, 400, q.Amount)
	assert.Len(t, s.QuickAdds(), len(DefaultQuickAdds)+1)
}

func TestAddQuickAddValidates(t *testing.T) {
	s := openTestStore(t)

	assert.Error(t, s.AddQuickAdd(QuickAdd{Name: "", Amount: 300}))
	assert.Error(t, s.AddQuickAdd(QuickAdd{Name: "Vat", Amount: 5000}))
	assert.Error(t, s.AddQuickAdd(QuickAdd{Name: "Empty", Amount: 0}))
}

func TestRemoveQuickAdd(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RemoveQuickAdd("coffee"))
	_, ok := s.LookupQuickAdd("Coffee")
	assert.False(t, ok)

	assert.Error(t, s.RemoveQuickAdd("Coffee"))
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_AllShapesAgree(t *testing.T) {
	want := map[ItemKey]PlanItem{
		"12_1_1": {ItemID: 12, Block: 1, Order: 1},
		"14_2_1": {ItemID: 14, Block: 2, Order: 1},
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"wrapped list", `{"exercises":[{"id":12,"block":1,"order":1},{"id":"14","block":2,"order":1}],"blockCount":2}`},
		{"wrapped map", `{"items":{"12_1_1":{},"14_2_1":{"id":14}}}`},
		{"flat list of keys", `["12_1_1","14_2_1"]`},
		{"flat list mixed", `["12_1_1",{"exerciseId":14,"block":2,"order":1}]`},
		{"wrapped list of keys", `{"exercises":["12_1_1","14_2_1"]}`},
		{"wrapped list mixed", `{"items":["12_1_1",{"id":14,"block":2,"order":1}]}`},
		{"empty container before populated one", `{"exercises":[],"items":["12_1_1","14_2_1"]}`},
		{"empty map container before populated one", `{"exercises":{},"meals":{"12_1_1":{},"14_2_1":null}}`},
		{"legacy map", `{"12_1_1":null,"14_2_1":true,"blockCount":2,"blockNames":["Warm-up","Main"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, NormalizeJSON([]byte(tt.raw)))
		})
	}
}

func TestNormalize_DropsMalformedEntries(t *testing.T) {
	raw := `{"exercises":[
		{"id":"abc","block":1,"order":1},
		{"block":1,"order":2},
		{"id":7,"block":"x","order":1},
		{"id":-3},
		{"id":9,"block":1,"order":3,"category":"Strength","sets":4,"reps":8,"rest":90}
	]}`
	got := NormalizeJSON([]byte(raw))
	require.Len(t, got, 1)
	item := got["9_1_3"]
	assert.Equal(t, int64(9), item.ItemID)
	assert.Equal(t, "strength", item.Category)
	assert.Equal(t, 4, item.Sets)
	assert.Equal(t, 8, item.Reps)
	assert.Equal(t, "90", item.Rest)
}

func TestNormalize_DefaultsBlockAndOrder(t *testing.T) {
	got := NormalizeJSON([]byte(`{"meals":[{"mealId":3},{"mealId":4}]}`))
	assert.Contains(t, got, ItemKey("3_1_1"))
	assert.Contains(t, got, ItemKey("4_1_2"))
}

func TestNormalize_ReservedKeysAreNotItems(t *testing.T) {
	raw := map[string]any{
		"blockCount": 3.0,
		"blockNames": map[string]any{"1": "Warm-up"},
		"blocks":     2.0,
		"_meta":      map[string]any{"id": 99.0},
		"5_1_1":      map[string]any{"reps": 12.0},
		"5_1_0":      false,
	}
	got := Normalize(raw)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got["5_1_1"].Reps)
}

func TestNormalize_UnknownRootShapes(t *testing.T) {
	for _, raw := range []any{nil, "12_1_1", 42.0, true} {
		assert.Empty(t, Normalize(raw))
	}
	assert.Empty(t, NormalizeJSON([]byte(`{not json`)))
}

func TestParseItemKey(t *testing.T) {
	id, block, order, ok := ParseItemKey("31_2_4")
	require.True(t, ok)
	assert.Equal(t, int64(31), id)
	assert.Equal(t, 2, block)
	assert.Equal(t, 4, order)

	for _, bad := range []string{"", "31_2", "a_1_1", "0_1_1", "1_-1_1", "1_1_1_1"} {
		_, _, _, ok := ParseItemKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestBlockNames(t *testing.T) {
	fromList := BlockNames(map[string]any{"blockNames": []any{"Warm-up", "", "Finisher"}})
	assert.Equal(t, map[int]string{1: "Warm-up", 3: "Finisher"}, fromList)

	fromMap := BlockNames(map[string]any{"blockNames": map[string]any{"2": "Main set", "x": "ignored"}})
	assert.Equal(t, map[int]string{2: "Main set"}, fromMap)

	assert.Empty(t, BlockNames([]any{"1_1_1"}))
	assert.Equal(t, "Block 4", DefaultBlockName(4))
}

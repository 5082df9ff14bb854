package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageParams(t *testing.T) {
	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"", 1, 10},
		{"page=3&per_page=25", 3, 25},
		{"page=0&per_page=0", 1, 10},
		{"page=-1&per_page=-5", 1, 10},
		{"page=x&per_page=y", 1, 10},
		{"per_page=101", 1, 100},
		{"per_page=100", 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/inventory?"+tt.query, nil)
			page, perPage := pageParams(r, 10, 100)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestDecodePatches(t *testing.T) {
	var req updateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"updates":[
		{"id":1,"stock":4,"price":9.99,"wc_cog_cost":2,"op_cost":"0.5"},
		{"id":"2","stock":"6.9"},
		{"id":3,"wc_cog_cost":"","op_cost":null},
		{"id":4,"cog_cost":"1.25"},
		{"id":5,"wc_cog_cost":"3","cog_cost":"9"},
		{"id":6,"price":"cheap","stock":true,"op_cost":"n/a"},
		{"id":0},
		{"id":2.5},
		{"stock":1},
		"garbage",
		null
	]}`), &req))

	patches := decodePatches(req.Updates)
	require.Len(t, patches, 6)

	p := patches[0]
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, 4, *p.Stock)
	assert.Equal(t, "9.99", p.Price.String())
	assert.Equal(t, "2", p.CogCost.Decimal.String())
	assert.Equal(t, "0.5", p.OpCost.Decimal.String())

	p = patches[1]
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, 6, *p.Stock)
	assert.Nil(t, p.Price)

	p = patches[2]
	require.NotNil(t, p.CogCost)
	assert.False(t, p.CogCost.Valid)
	assert.Nil(t, p.OpCost)

	p = patches[3]
	require.NotNil(t, p.CogCost)
	assert.Equal(t, "1.25", p.CogCost.Decimal.String())

	p = patches[4]
	assert.Equal(t, "3", p.CogCost.Decimal.String())

	p = patches[5]
	assert.Equal(t, int64(6), p.ID)
	assert.Nil(t, p.Stock)
	assert.Nil(t, p.Price)
	assert.Nil(t, p.CogCost)
	assert.Nil(t, p.OpCost)
}

func TestDecodePatchesOutOfRangeNumbers(t *testing.T) {
	var req updateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"updates":[
		{"id":18446744073709551617,"stock":5},
		{"id":"9223372036854775808","stock":5},
		{"id":9223372036854775807,"stock":1},
		{"id":2,"stock":1e30},
		{"id":3,"stock":9223372036854775808,"price":"4"},
		{"id":4,"stock":-2147483649},
		{"id":5,"stock":2147483647},
		{"id":6,"stock":"-2147483648"}
	]}`), &req))

	patches := decodePatches(req.Updates)
	require.Len(t, patches, 6)

	assert.Equal(t, int64(9223372036854775807), patches[0].ID)
	assert.Equal(t, 1, *patches[0].Stock)

	assert.Equal(t, int64(2), patches[1].ID)
	assert.Nil(t, patches[1].Stock)

	assert.Equal(t, int64(3), patches[2].ID)
	assert.Nil(t, patches[2].Stock)
	assert.Equal(t, "4", patches[2].Price.String())

	assert.Equal(t, int64(4), patches[3].ID)
	assert.Nil(t, patches[3].Stock)

	assert.Equal(t, 2147483647, *patches[4].Stock)
	assert.Equal(t, -2147483648, *patches[5].Stock)
}

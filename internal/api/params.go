package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/safar/store-dashboard/internal/dashboard"
	"github.com/shopspring/decimal"
)

// pageParams reads page and per_page from the query string. Missing,
// non-numeric or non-positive values fall back to the defaults and
// per_page is capped at maxPerPage.
func pageParams(r *http.Request, defaultPerPage, maxPerPage int) (int, int) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type updateRequest struct {
	Updates []json.RawMessage `json:"updates"`
}

// decodePatches turns the loosely typed update entries into patches.
// Entries that are not objects or lack a usable id are dropped.
func decodePatches(entries []json.RawMessage) []dashboard.Patch {
	patches := make([]dashboard.Patch, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			continue
		}
		patch, ok := decodePatch(fields)
		if !ok {
			continue
		}
		patches = append(patches, patch)
	}
	return patches
}

var (
	maxID    = decimal.NewFromInt(math.MaxInt64)
	minStock = decimal.NewFromInt(math.MinInt32)
	maxStock = decimal.NewFromInt(math.MaxInt32)
)

// decodePatch drops entries whose id is not a positive integer that fits
// int64. A stock value outside the stock_quantity column range is ignored.
func decodePatch(fields map[string]json.RawMessage) (dashboard.Patch, bool) {
	id, ok := numberField(fields["id"])
	if !ok || !id.IsInteger() || !id.IsPositive() || id.GreaterThan(maxID) {
		return dashboard.Patch{}, false
	}
	patch := dashboard.Patch{ID: id.IntPart()}

	if stock, ok := numberField(fields["stock"]); ok {
		stock = stock.Truncate(0)
		if !stock.LessThan(minStock) && !stock.GreaterThan(maxStock) {
			n := int(stock.IntPart())
			patch.Stock = &n
		}
	}
	if price, ok := numberField(fields["price"]); ok {
		patch.Price = &price
	}

	cog, present := fields["wc_cog_cost"]
	if !present {
		cog = fields["cog_cost"]
	}
	patch.CogCost = costField(cog)
	patch.OpCost = costField(fields["op_cost"])

	return patch, true
}

// numberField reads a JSON number or a numeric string. Anything else,
// including null, reads as absent.
func numberField(raw json.RawMessage) (decimal.Decimal, bool) {
	s, ok := scalarText(raw)
	if !ok || s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// costField is numberField plus one rule: an empty string clears the cost.
func costField(raw json.RawMessage) *decimal.NullDecimal {
	s, ok := scalarText(raw)
	if !ok {
		return nil
	}
	if s == "" {
		return &decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := decimal.NewNullDecimal(d)
	return &v
}

func scalarText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case json.Number:
		return t.String(), true
	case string:
		return strings.TrimSpace(t), true
	}
	return "", false
}

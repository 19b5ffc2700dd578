package itinerary

import "strings"

// FieldKey names a canonical semantic column of an itinerary table.
type FieldKey string

const (
	FieldOrder          FieldKey = "order"
	FieldTime           FieldKey = "time"
	FieldName           FieldKey = "name"
	FieldAddress        FieldKey = "address"
	FieldType           FieldKey = "type"
	FieldDuration       FieldKey = "duration"
	FieldCost           FieldKey = "cost"
	FieldDescription    FieldKey = "description"
	FieldHighlights     FieldKey = "highlights"
	FieldFood           FieldKey = "food"
	FieldTransportation FieldKey = "transportation"
)

// fieldVocabulary maps each key to the header wordings that select it.
// Matching is substring containment, case-sensitive, first vocabulary
// entry that matches a header cell claims that cell. Header wording
// varies between tables inside one document, so a FieldMap is rebuilt
// for every table header line.
var fieldVocabulary = []struct {
	key      FieldKey
	keywords []string
}{
	{FieldOrder, []string{"序号"}},
	{FieldTime, []string{"时间"}},
	{FieldName, []string{"名称", "地点"}},
	{FieldAddress, []string{"地址", "位置"}},
	{FieldType, []string{"类型"}},
	{FieldDuration, []string{"时长", "建议时长"}},
	{FieldCost, []string{"费用", "花费", "门票", "人均"}},
	{FieldDescription, []string{"描述", "备注"}},
	{FieldHighlights, []string{"推荐", "亮点"}},
	{FieldFood, []string{"美食", "餐饮"}},
	{FieldTransportation, []string{"交通"}},
}

// positionalIndex is the legacy fixed column order used when a header
// cell could not be classified. It assumes 序号|时间|类型|名称|地址 and can
// silently misassign fields when the actual table deviates; FieldMap
// reports when a lookup came from this guess so callers can count it.
var positionalIndex = map[FieldKey]int{
	FieldOrder:   0,
	FieldTime:    1,
	FieldType:    2,
	FieldName:    3,
	FieldAddress: 4,
}

// FieldMap is the per-table mapping from header wording to semantic
// fields.
type FieldMap struct {
	byHeader map[FieldKey]int
}

// ClassifyHeaders builds a FieldMap from the trimmed header cells of one
// table. Each cell maps to at most one key; the first cell matching a
// key's vocabulary wins that slot and later duplicates are ignored.
// Unmatched keys are simply absent, which routes lookups through the
// positional fallback.
func ClassifyHeaders(cells []string) FieldMap {
	m := FieldMap{byHeader: make(map[FieldKey]int, len(cells))}
	for idx, cell := range cells {
		for _, entry := range fieldVocabulary {
			if _, taken := m.byHeader[entry.key]; taken {
				continue
			}
			if containsAny(cell, entry.keywords) {
				m.byHeader[entry.key] = idx
				break
			}
		}
	}
	return m
}

// Lookup fetches the cell for key from one data row. The second return
// reports whether the value came from the positional fallback rather
// than a classified header.
func (m FieldMap) Lookup(key FieldKey, cells []string) (string, bool) {
	if idx, ok := m.byHeader[key]; ok {
		if idx < len(cells) {
			return cells[idx], false
		}
		return "", false
	}
	if idx, ok := positionalIndex[key]; ok && idx < len(cells) {
		return cells[idx], true
	}
	return "", false
}

// Has reports whether key was classified from the header line.
func (m FieldMap) Has(key FieldKey) bool {
	_, ok := m.byHeader[key]
	return ok
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

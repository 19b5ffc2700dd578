package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHeaders(t *testing.T) {
	m := ClassifyHeaders([]string{"序号", "时间", "地点名称", "详细地址", "类型", "建议时长", "门票费用"})

	cells := []string{"1", "09:00", "外滩", "中山东一路", "景点", "60分钟", "免费"}

	name, positional := m.Lookup(FieldName, cells)
	assert.Equal(t, "外滩", name)
	assert.False(t, positional)

	addr, positional := m.Lookup(FieldAddress, cells)
	assert.Equal(t, "中山东一路", addr)
	assert.False(t, positional)

	duration, _ := m.Lookup(FieldDuration, cells)
	assert.Equal(t, "60分钟", duration)

	cost, _ := m.Lookup(FieldCost, cells)
	assert.Equal(t, "免费", cost)
}

func TestClassifyHeadersFirstMatchWins(t *testing.T) {
	// Two cells both contain 名称; the first one claims the name slot.
	m := ClassifyHeaders([]string{"名称", "英文名称"})
	name, _ := m.Lookup(FieldName, []string{"豫园", "Yu Garden"})
	assert.Equal(t, "豫园", name)
}

func TestLookupPositionalFallback(t *testing.T) {
	m := ClassifyHeaders([]string{"甲", "乙", "丙", "丁", "戊"})
	cells := []string{"2", "10:00", "景点", "豫园", "老城厢"}

	name, positional := m.Lookup(FieldName, cells)
	assert.Equal(t, "豫园", name)
	assert.True(t, positional)

	addr, positional := m.Lookup(FieldAddress, cells)
	assert.Equal(t, "老城厢", addr)
	assert.True(t, positional)

	// Keys without a positional slot come back empty.
	food, positional := m.Lookup(FieldFood, cells)
	assert.Empty(t, food)
	assert.False(t, positional)
}

func TestLookupClassifiedIndexBeyondRow(t *testing.T) {
	m := ClassifyHeaders([]string{"序号", "名称", "地址", "备注"})
	// Row shorter than the header: missing cells are empty, not guessed.
	desc, positional := m.Lookup(FieldDescription, []string{"1", "豫园"})
	assert.Empty(t, desc)
	assert.False(t, positional)
}

func TestHas(t *testing.T) {
	m := ClassifyHeaders([]string{"序号", "名称"})
	assert.True(t, m.Has(FieldName))
	assert.False(t, m.Has(FieldAddress))
}

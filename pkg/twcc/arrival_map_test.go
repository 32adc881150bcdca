// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArrivalMapFirstSeenWins(t *testing.T) {
	var m ArrivalMap

	assert.True(t, m.Insert(10, 1000))
	assert.False(t, m.Insert(10, 2000)) // duplicate / retransmit, ignored

	got, ok := m.Get(10)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), got)
}

func TestArrivalMapOrdering(t *testing.T) {
	var m ArrivalMap
	m.Insert(12, 1020)
	m.Insert(10, 1000)
	m.Insert(11, 1010)

	keys := make([]int64, 0, m.Len())
	for _, e := range m.RangeFrom(0) {
		keys = append(keys, e.seq)
	}
	assert.Equal(t, []int64{10, 11, 12}, keys)
}

func TestArrivalMapCullStaleBeforeRespectsBackWindow(t *testing.T) {
	var m ArrivalMap
	m.Insert(5, 500)
	m.Insert(6, 900)
	m.Insert(7, 950)

	// seq=8 is the new arrival's key; back window is 500ms at now=1000.
	// Entry 5 (age 500) and 6 (age 100, too fresh) should differ: culling
	// stops at the first entry that fails either condition.
	culled := m.CullStaleBefore(8, 1000, 500)
	assert.True(t, culled)
	assert.Equal(t, 2, m.Len())

	_, ok := m.Get(5)
	assert.False(t, ok)
	_, ok = m.Get(6)
	assert.True(t, ok)
}

func TestArrivalMapCullStaleBeforeStopsAtFreshEntry(t *testing.T) {
	var m ArrivalMap
	m.Insert(5, 900) // too fresh relative to back window
	m.Insert(6, 500)

	culled := m.CullStaleBefore(7, 1000, 500)
	assert.False(t, culled)
	assert.Equal(t, 2, m.Len())
}

func TestArrivalMapEnforceBound(t *testing.T) {
	var m ArrivalMap
	for seq := int64(0); seq < 40000; seq++ {
		m.Insert(seq, seq)
		m.EnforceBound(seq)
	}

	minKey, ok := m.MinKey()
	assert.True(t, ok)
	assert.Greater(t, minKey, int64(39999-32768))

	maxKey, _ := m.MaxKey()
	assert.LessOrEqual(t, maxKey-minKey, int64(maxSequenceSpan))
	assert.LessOrEqual(t, m.Len(), maxSequenceSpan)
}

func TestArrivalMapEraseBefore(t *testing.T) {
	var m ArrivalMap
	for seq := int64(100); seq <= 110; seq++ {
		m.Insert(seq, 1000+seq)
	}

	erased := m.EraseBefore(104)
	assert.True(t, erased)

	_, ok := m.Get(103)
	assert.False(t, ok)
	_, ok = m.Get(104)
	assert.True(t, ok)
}

func TestArrivalMapRangeBetween(t *testing.T) {
	var m ArrivalMap
	for seq := int64(100); seq <= 110; seq++ {
		m.Insert(seq, 1000+seq)
	}

	got := m.RangeBetween(104, 108)
	assert.Len(t, got, 5)
	assert.Equal(t, int64(104), got[0].seq)
	assert.Equal(t, int64(108), got[len(got)-1].seq)
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import "sort"

// maxSequenceSpan bounds the span (max key - min key) of an ArrivalMap:
// EnforceBound keeps the span strictly below it. It matches the wire
// format's 15-bit sequence number capacity.
const maxSequenceSpan = 1 << 15

// arrivalEntry is one (unwrapped sequence, arrival time) pair.
type arrivalEntry struct {
	seq       int64
	arrivalMs int64
}

// ArrivalMap is an ordered mapping from unwrapped transport sequence number
// to arrival time in milliseconds. Keys are unique and iterable in
// ascending order. It is not safe for concurrent use; callers serialize
// access (the Proxy does this with its single lock).
type ArrivalMap struct {
	entries []arrivalEntry
}

// Len returns the number of arrivals currently held.
func (m *ArrivalMap) Len() int {
	return len(m.entries)
}

// lowerBound returns the index of the first entry with key >= seq, or
// len(m.entries) if none exists.
func (m *ArrivalMap) lowerBound(seq int64) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].seq >= seq
	})
}

// Get reports the arrival time recorded for seq, if any.
func (m *ArrivalMap) Get(seq int64) (arrivalMs int64, ok bool) {
	i := m.lowerBound(seq)
	if i < len(m.entries) && m.entries[i].seq == seq {
		return m.entries[i].arrivalMs, true
	}

	return 0, false
}

// MinKey returns the smallest key currently held.
func (m *ArrivalMap) MinKey() (seq int64, ok bool) {
	if len(m.entries) == 0 {
		return 0, false
	}

	return m.entries[0].seq, true
}

// MaxKey returns the largest key currently held.
func (m *ArrivalMap) MaxKey() (seq int64, ok bool) {
	if len(m.entries) == 0 {
		return 0, false
	}

	return m.entries[len(m.entries)-1].seq, true
}

// Insert records the first-seen arrival time for seq. It reports false
// without modifying the map if seq is already present, preserving
// first-seen-wins semantics for retransmission tolerance.
func (m *ArrivalMap) Insert(seq, arrivalMs int64) bool {
	i := m.lowerBound(seq)
	if i < len(m.entries) && m.entries[i].seq == seq {
		return false
	}

	m.entries = append(m.entries, arrivalEntry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = arrivalEntry{seq: seq, arrivalMs: arrivalMs}

	return true
}

// CullStaleBefore removes entries from the front of the map while their key
// is below seq and they are at least backWindowMs older than nowArrivalMs.
// It stops at the first entry that fails either condition, matching the
// original's "erase while" front-trim (not a full scan). It reports
// whether anything was removed.
func (m *ArrivalMap) CullStaleBefore(seq, nowArrivalMs, backWindowMs int64) bool {
	i := 0
	for i < len(m.entries) &&
		m.entries[i].seq < seq &&
		nowArrivalMs-m.entries[i].arrivalMs >= backWindowMs {
		i++
	}

	if i == 0 {
		return false
	}

	m.entries = m.entries[i:]

	return true
}

// EnforceBound erases every entry whose key is at most maxKey -
// maxSequenceSpan, keeping max_key - min_key strictly below maxSequenceSpan.
// It reports whether anything was removed.
func (m *ArrivalMap) EnforceBound(maxKey int64) bool {
	i := m.lowerBound(maxKey - maxSequenceSpan + 1)
	if i == 0 {
		return false
	}

	m.entries = m.entries[i:]

	return true
}

// EraseBefore removes every entry with key < seq. It reports whether
// anything was removed.
func (m *ArrivalMap) EraseBefore(seq int64) bool {
	i := m.lowerBound(seq)
	if i == 0 {
		return false
	}

	m.entries = m.entries[i:]

	return true
}

// RangeFrom returns a view of the entries with key >= seq, in ascending
// order. The returned slice aliases the map's backing array and must not be
// retained across a mutating call.
func (m *ArrivalMap) RangeFrom(seq int64) []arrivalEntry {
	return m.entries[m.lowerBound(seq):]
}

// upperBound returns the index of the first entry with key > seq.
func (m *ArrivalMap) upperBound(seq int64) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].seq > seq
	})
}

// RangeBetween returns a view of the entries with key in [from, to]
// inclusive, in ascending order.
func (m *ArrivalMap) RangeBetween(from, to int64) []arrivalEntry {
	return m.entries[m.lowerBound(from):m.upperBound(to)]
}

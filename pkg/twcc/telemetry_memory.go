// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

// InMemoryTelemetryStore is the default TelemetryStore: it buffers rows in
// memory and never fails, so the flush-retry policy never has to engage.
// Wire in a real store (e.g. a redis-backed one) via WithTelemetryStore for
// anything beyond local testing.
type InMemoryTelemetryStore struct {
	sessionID string
	kind      string
	rows      []TelemetryRow
	saved     []TelemetryRow
}

// NewInMemoryTelemetryStore creates an empty InMemoryTelemetryStore.
func NewInMemoryTelemetryStore() *InMemoryTelemetryStore {
	return &InMemoryTelemetryStore{}
}

// Connect is a no-op; the in-memory store has no connection state.
func (s *InMemoryTelemetryStore) Connect(string, int) error { return nil }

// SetConfig records the session identity; the in-memory store does not
// validate it.
func (s *InMemoryTelemetryStore) SetConfig(sessionID, kind string) error {
	s.sessionID = sessionID
	s.kind = kind

	return nil
}

// Collect buffers one row.
func (s *InMemoryTelemetryStore) Collect(row TelemetryRow) {
	s.rows = append(s.rows, row)
}

// Save moves buffered rows into Saved and always succeeds.
func (s *InMemoryTelemetryStore) Save() TelemetrySaveResult {
	s.saved = append(s.saved, s.rows...)
	s.rows = nil

	return TelemetrySaveOK
}

// Saved returns every row that has been flushed by Save so far.
func (s *InMemoryTelemetryStore) Saved() []TelemetryRow {
	return s.saved
}

// Close is a no-op.
func (s *InMemoryTelemetryStore) Close() error { return nil }

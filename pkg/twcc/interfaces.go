// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import "github.com/pion/rtcp"

// Clock is the injected time source the Proxy and FeedbackScheduler consult
// for every deadline decision. It must be monotonic within a session.
type Clock interface {
	TimeInMilliseconds() int64
}

// ClockFunc adapts a plain function to a Clock.
type ClockFunc func() int64

// TimeInMilliseconds implements Clock.
func (f ClockFunc) TimeInMilliseconds() int64 { return f() }

// FeedbackSender ships built packets to the far end. Implementations are
// expected to be cheap and non-reentrant: the Proxy calls these while
// holding its lock.
type FeedbackSender interface {
	// SendTransportFeedback ships a fully-built transport-feedback report.
	SendTransportFeedback(pkt *rtcp.TransportLayerCC) error
	// SendApplicationPacket ships an RTCP application-defined packet, used
	// here for BWE sendback.
	SendApplicationPacket(pkt *rtcp.RawPacket) error
}

// Predictor is consulted once per arriving packet and on-demand for its
// latest bandwidth estimate. A nil Predictor is valid: the Proxy treats a
// failed/absent predictor as "BWE sendback suppressed", per the
// constructor-time degradation policy.
type Predictor interface {
	// OnReceived reports one packet's arrival to the predictor. lossCount
	// and rtt are -1 when unavailable.
	OnReceived(payloadType uint8, seq uint16, sendTimeMs uint32, ssrc uint32,
		paddingLen, headerLen int, arrivalMs int64, payloadSize int, lossCount, rtt int)
	// GetBWEEstimate returns the predictor's current bandwidth estimate.
	GetBWEEstimate() float32
}

// TelemetrySaveResult is the disposition of a TelemetryStore.Save call,
// distinguishing the error kinds the flush-retry policy reacts to
// differently.
type TelemetrySaveResult int

const (
	// TelemetrySaveOK indicates the row(s) were persisted.
	TelemetrySaveOK TelemetrySaveResult = iota
	// TelemetrySaveConnectError indicates the store's connection dropped;
	// the caller should reconnect before retrying.
	TelemetrySaveConnectError
	// TelemetrySaveSessionError indicates the session/config is stale; the
	// caller should reconfigure before retrying.
	TelemetrySaveSessionError
	// TelemetrySaveTypeError indicates a schema/type mismatch; the caller
	// should reconfigure before retrying.
	TelemetrySaveTypeError
	// TelemetrySaveOtherError indicates an error with no defined recovery;
	// the caller should log and drop.
	TelemetrySaveOtherError
)

// TelemetryRow is one per-packet record pushed to the telemetry store.
type TelemetryRow struct {
	PacingRate, PaddingRate float64
	PayloadType             uint8
	SequenceNumber          uint16
	SendTimeMs              uint32
	SSRC                    uint32
	PaddingLen, HeaderLen   int
	ArrivalMs               int64
	PayloadSize             int
}

// TelemetryStore is the external per-packet statistics sink. Connect and
// SetConfig are invoked by the flush-retry policy when Save reports a
// recoverable error.
type TelemetryStore interface {
	Connect(ip string, port int) error
	SetConfig(sessionID string, kind string) error
	Collect(row TelemetryRow)
	Save() TelemetrySaveResult
	Close() error
}

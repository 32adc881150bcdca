// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpath/tccfeedback/pkg/rtpio"
)

type fakeClock struct{ nowMs int64 }

func (c *fakeClock) TimeInMilliseconds() int64 { return c.nowMs }

type fakeSender struct {
	feedback []*rtcp.TransportLayerCC
	app      []*rtcp.RawPacket
}

func (s *fakeSender) SendTransportFeedback(pkt *rtcp.TransportLayerCC) error {
	s.feedback = append(s.feedback, pkt)

	return nil
}

func (s *fakeSender) SendApplicationPacket(pkt *rtcp.RawPacket) error {
	s.app = append(s.app, pkt)

	return nil
}

func newTestProxy(t *testing.T, opts ...Option) (*Proxy, *fakeClock, *fakeSender) {
	t.Helper()

	clock := &fakeClock{}
	sender := &fakeSender{}

	base := []Option{WithClock(clock), WithBackWindow(500 * time.Millisecond)}
	p, err := NewProxy(0xC0FFEE, sender, append(base, opts...)...)
	require.NoError(t, err)

	return p, clock, sender
}

func send(p *Proxy, clock *fakeClock, seq uint16, arrivalMs int64) {
	clock.nowMs = arrivalMs
	p.IncomingPacket(arrivalMs, 100, PacketHeader{
		SSRC: 1, HasTransportSequenceNumber: true, TransportSequenceNumber: seq,
	})
}

// Scenario 1: basic periodic emission.
func TestProxyBasicPeriodic(t *testing.T) {
	p, clock, sender := newTestProxy(t, WithDefaultInterval(100*time.Millisecond))

	send(p, clock, 10, 1000)
	send(p, clock, 11, 1010)
	send(p, clock, 12, 1020)

	clock.nowMs = 1100
	p.Process()

	require.Len(t, sender.feedback, 1)
	pkt := sender.feedback[0]
	assert.Equal(t, uint16(10), pkt.BaseSequenceNumber)
	assert.Equal(t, uint16(3), pkt.PacketStatusCount)
}

// Scenario 2: reordering tolerated, lowering periodic_window_start.
func TestProxyReorderingLowersWindowStart(t *testing.T) {
	p, clock, sender := newTestProxy(t, WithDefaultInterval(100*time.Millisecond))

	send(p, clock, 10, 1000)
	send(p, clock, 11, 1010)
	send(p, clock, 12, 1020)
	clock.nowMs = 1100
	p.Process()
	require.Len(t, sender.feedback, 1)

	send(p, clock, 9, 1030)

	clock.nowMs = 1200
	p.Process()

	require.Len(t, sender.feedback, 2)
	assert.Equal(t, uint16(9), sender.feedback[1].BaseSequenceNumber)
	assert.Equal(t, uint16(4), sender.feedback[1].PacketStatusCount)
}

// Scenario 3: wrap-around of the wire sequence number.
func TestProxyWrapAround(t *testing.T) {
	p, clock, sender := newTestProxy(t)

	send(p, clock, 65535, 1)
	send(p, clock, 0, 2)
	send(p, clock, 1, 3)

	clock.nowMs = 100
	p.Process()

	require.Len(t, sender.feedback, 1)
	assert.Equal(t, uint16(65535), sender.feedback[0].BaseSequenceNumber)
	assert.Equal(t, uint16(3), sender.feedback[0].PacketStatusCount)
}

// Scenario 4: hard bound enforcement over 40000 arrivals.
func TestProxyHardBound(t *testing.T) {
	p, clock, _ := newTestProxy(t)

	for seq := 0; seq < 40000; seq++ {
		send(p, clock, uint16(seq&0xffff), int64(seq))
	}

	minKey, ok := p.arrivals.MinKey()
	require.True(t, ok)
	assert.Greater(t, minKey, int64(39999-32768))
	assert.LessOrEqual(t, p.arrivals.Len(), maxSequenceSpan)
}

// Scenario 5: on-request emission trims the map's prefix.
func TestProxyOnRequestEmission(t *testing.T) {
	p, clock, sender := newTestProxy(t)

	for seq := 100; seq < 108; seq++ {
		send(p, clock, uint16(seq), 1000+int64(seq-100))
	}

	clock.nowMs = 1008
	p.IncomingPacket(1008, 100, PacketHeader{
		SSRC: 1, HasTransportSequenceNumber: true, TransportSequenceNumber: 108,
		FeedbackRequest: &FeedbackRequest{SequenceCount: 5},
	})

	require.Len(t, sender.feedback, 1)
	assert.Equal(t, uint16(104), sender.feedback[0].BaseSequenceNumber)
	assert.Equal(t, uint16(5), sender.feedback[0].PacketStatusCount)

	_, ok := p.arrivals.Get(103)
	assert.False(t, ok)
	_, ok = p.arrivals.Get(104)
	assert.True(t, ok)
}

// Scenario 6: BWE sendback throttled to at most once per window.
func TestProxyBWEThrottle(t *testing.T) {
	p, clock, sender := newTestProxy(t, WithBWEFeedbackDuration(200*time.Millisecond))

	for i, seq := 0, uint16(0); i < 50; i, seq = i+1, seq+1 {
		send(p, clock, seq, int64(i)*10)
	}

	assert.LessOrEqual(t, len(sender.app), 3)
	assert.GreaterOrEqual(t, len(sender.app), 2)
}

// Scenario 7: adaptive interval clamps to [min_rate, max_rate].
func TestProxyBitrateAdaptation(t *testing.T) {
	p, _, _ := newTestProxy(t, WithIntervalBounds(50*time.Millisecond, 250*time.Millisecond))

	p.OnBitrateChanged(1_000_000)

	assert.Equal(t, int64(50), p.sendIntervalMs)
}

// Empty periodic emission is a no-op when periodic_window_start is unset.
func TestProxyEmptyPeriodicEmissionNoop(t *testing.T) {
	p, clock, sender := newTestProxy(t)

	clock.nowMs = 1000
	p.Process()

	assert.Empty(t, sender.feedback)
}

// Duplicate arrivals of the same unwrapped sequence keep only the first
// observed arrival time.
func TestProxyDuplicateArrivalIgnored(t *testing.T) {
	p, clock, _ := newTestProxy(t)

	send(p, clock, 5, 1000)
	send(p, clock, 5, 9999)

	got, ok := p.arrivals.Get(5)
	require.True(t, ok)
	assert.Equal(t, int64(1000), got)
}

// The Proxy consumes the sequence numbers a HeaderExtensionInterceptor
// stamps onto outgoing packets, closing the loop between the sender-side
// fixture and the receiver-side engine.
func TestProxyConsumesHeaderExtensionInterceptorTraffic(t *testing.T) {
	p, clock, sender := newTestProxy(t, WithDefaultInterval(100*time.Millisecond))

	hei, err := NewHeaderExtensionInterceptor(1)
	require.NoError(t, err)

	rtpOut, rtpWriter := rtpio.RTPPipe()
	rtpIn := hei.Transform(rtpWriter, nil, nil)

	const n = 3
	go func() {
		for i := 0; i < n; i++ {
			_, writeErr := rtpIn.WriteRTP(&rtp.Packet{Header: rtp.Header{SequenceNumber: uint16(i)}})
			assert.NoError(t, writeErr)
		}
	}()

	for i := 0; i < n; i++ {
		pkt := &rtp.Packet{}
		_, readErr := rtpOut.ReadRTP(pkt)
		require.NoError(t, readErr)

		tcc := &rtp.TransportCCExtension{}
		require.NoError(t, tcc.Unmarshal(pkt.GetExtension(1)))

		clock.nowMs = int64(i) * 10
		p.IncomingPacket(clock.nowMs, 100, PacketHeader{
			SSRC: 1, HasTransportSequenceNumber: true, TransportSequenceNumber: tcc.TransportSequence,
		})
	}

	clock.nowMs = 1000
	p.Process()

	require.Len(t, sender.feedback, 1)
	assert.Equal(t, uint16(n), sender.feedback[0].PacketStatusCount)
}

// Out-of-range arrival times are rejected without mutating state.
func TestProxyOutOfRangeArrivalRejected(t *testing.T) {
	p, clock, _ := newTestProxy(t)

	send(p, clock, 1, -1)
	assert.Equal(t, 0, p.arrivals.Len())
}

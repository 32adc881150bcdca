// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"time"

	"github.com/flowpath/tccfeedback/internal/types"
)

// neverProcess is returned by TimeUntilNextProcess when periodic feedback
// is disabled: a 24h sentinel borrowed from the original scheduler
// contract rather than a dedicated "disabled" value, so callers that treat
// the return purely as a sleep duration keep working unmodified.
const neverProcess = 24 * time.Hour

// TimeUntilNextProcess reports how long the caller should wait before the
// next call to Process. It acquires the Proxy lock.
func (p *Proxy) TimeUntilNextProcess() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sendPeriodicFeedback {
		return neverProcess
	}

	if p.lastProcessTimeMs != -1 {
		now := p.clock.TimeInMilliseconds()
		if elapsed := now - p.lastProcessTimeMs; elapsed < p.sendIntervalMs {
			return time.Duration(p.sendIntervalMs-elapsed) * time.Millisecond
		}
	}

	return 0
}

// Process packetizes pending arrivals into feedback reports and hands
// them to the sender. It acquires the Proxy lock.
func (p *Proxy) Process() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sendPeriodicFeedback {
		return
	}

	p.lastProcessTimeMs = p.clock.TimeInMilliseconds()
	p.sendPeriodicFeedbacks()
}

// sendPeriodicFeedbacks implements §4.5's periodic emission loop. Callers
// hold p.mu.
func (p *Proxy) sendPeriodicFeedbacks() {
	if p.periodicWindowStart == nil {
		return
	}

	for {
		begin := *p.periodicWindowStart
		entries := p.arrivals.RangeFrom(begin)
		if len(entries) == 0 {
			return
		}

		pkt := NewRTCPFeedbackPacket(p.senderSSRC)
		next := BuildFeedbackPacket(p.feedbackPacketCount, p.mediaSSRC, begin, entries, pkt)
		p.feedbackPacketCount++
		p.periodicWindowStart = &next

		if err := p.sender.SendTransportFeedback(pkt.RTCPPacket()); err != nil {
			p.log.Errorf("twcc: send transport feedback: %v", err)
		}
		// Entries are not erased after sending: reordered stragglers must
		// remain eligible for re-report until the cull policy removes them.
	}
}

// sendFeedbackOnRequest implements §4.5's on-request emission: it packs
// exactly the requested window and trims the map's prefix. Callers hold
// p.mu.
func (p *Proxy) sendFeedbackOnRequest(seq int64, req FeedbackRequest) {
	if req.SequenceCount == 0 {
		return
	}

	first := seq - int64(req.SequenceCount) + 1
	entries := p.arrivals.RangeBetween(first, seq)
	if len(entries) == 0 {
		return
	}

	pkt := NewRTCPFeedbackPacket(p.senderSSRC)
	BuildFeedbackPacket(p.feedbackPacketCount, p.mediaSSRC, first, entries, pkt)
	p.feedbackPacketCount++

	p.arrivals.EraseBefore(entries[0].seq)

	if err := p.sender.SendTransportFeedback(pkt.RTCPPacket()); err != nil {
		p.log.Errorf("twcc: send transport feedback: %v", err)
	}
}

// OnBitrateChanged recomputes the adaptive send interval so periodic
// feedback reports occupy Config.BandwidthFraction of bitrate, clamped
// to the interval bounds. It acquires the Proxy lock.
func (p *Proxy) OnBitrateChanged(bitrate types.DataRate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	minRate := types.DataRate(TwccReportSize * 8 * 1000 / p.config.MaxInterval.Milliseconds())
	maxRate := types.DataRate(TwccReportSize * 8 * 1000 / p.config.MinInterval.Milliseconds())

	fraction := types.DataRate(p.config.BandwidthFraction * float64(bitrate))
	rate := types.MinDataRate(types.MaxDataRate(fraction, minRate), maxRate)

	p.sendIntervalMs = int64(TwccReportSize*8*1000) / int64(rate)
}

// SetSendPeriodicFeedback enables or disables the periodic emission loop.
// It acquires the Proxy lock.
func (p *Proxy) SetSendPeriodicFeedback(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sendPeriodicFeedback = enabled
}

// LatestEstimate returns the predictor's most recent bandwidth estimate, or
// 0 if no predictor is configured. It acquires the Proxy lock.
func (p *Proxy) LatestEstimate() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentEstimate()
}

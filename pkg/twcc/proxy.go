// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"math"
	"sync"
	"time"

	"github.com/pion/logging"
	"golang.org/x/time/rate"

	"github.com/flowpath/tccfeedback/internal/sequencenumber"
)

// maxTimeMs is the largest arrival time, in milliseconds, this engine will
// accept: below the int64 millisecond limit by the margin needed to
// safely convert to microseconds downstream.
const maxTimeMs = math.MaxInt64 / 1000

// FeedbackRequest asks the Proxy to emit an immediate, targeted feedback
// report instead of waiting for the next periodic window.
type FeedbackRequest struct {
	// SequenceCount is how many of the most recent sequence numbers
	// (ending at the triggering packet's) to report on. Zero means "no
	// report".
	SequenceCount int
	// IncludeTimestamps is not read by the Proxy; this package's default
	// encoder always includes timestamps.
	IncludeTimestamps bool
}

// PacketHeader carries the per-packet metadata IncomingPacket needs,
// typically read directly off an arriving RTP packet's header and
// extensions.
type PacketHeader struct {
	SSRC                       uint32
	PayloadType                uint8
	SequenceNumber             uint16
	PaddingLength              int
	HeaderLength               int
	HasTransportSequenceNumber bool
	TransportSequenceNumber    uint16
	AbsoluteSendTime           uint32
	FeedbackRequest            *FeedbackRequest
}

// Proxy is the receiver-side transport feedback engine's entry point. It
// owns the arrival map, the sequence/abs-send-time unwrappers, and the
// BWE-sendback and telemetry-flush deadlines, all guarded by a single
// coarse-grained lock. It composes the FeedbackScheduler and
// FeedbackBuilder and drives the Predictor and TelemetryStore
// collaborators at throttled cadences.
type Proxy struct {
	mu sync.Mutex

	config Config
	clock  Clock
	sender FeedbackSender
	log    logging.LeveledLogger

	predictor Predictor
	telemetry TelemetryStore

	senderSSRC uint32
	mediaSSRC  uint32

	unwrapper   sequencenumber.Unwrapper
	absSendTime AbsSendTimeTracker
	arrivals    ArrivalMap

	periodicWindowStart  *int64
	sendPeriodicFeedback bool
	sendIntervalMs       int64
	lastProcessTimeMs    int64
	feedbackPacketCount  uint8

	// bweLimiter and telemetryLimiter gate the BWE-sendback and
	// telemetry-flush cadences to at most once per configured duration,
	// the same burst-1 rate.Limiter pattern this codebase's pacer uses for
	// send-side throttling.
	bweLimiter       *rate.Limiter
	telemetryLimiter *rate.Limiter

	tickerFactory func(time.Duration) ticker

	loggedMissingSeqExt bool
}

// NewProxy constructs a Proxy. senderSSRC identifies this receiver in
// outgoing feedback and BWE sendback packets; sender ships the packets it
// builds.
func NewProxy(senderSSRC uint32, sender FeedbackSender, opts ...Option) (*Proxy, error) {
	config := DefaultConfig()

	p := &Proxy{
		config:               config,
		clock:                ClockFunc(func() int64 { return time.Now().UnixMilli() }),
		sender:               sender,
		log:                  logging.NewDefaultLoggerFactory().NewLogger("twcc_proxy"),
		predictor:            NewEWMAPredictor(0.1),
		telemetry:            NewInMemoryTelemetryStore(),
		senderSSRC:           senderSSRC,
		sendPeriodicFeedback: true,
		sendIntervalMs:       config.DefaultInterval.Milliseconds(),
		lastProcessTimeMs:    -1,
		tickerFactory:        newRealTicker,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Burst 1 so each limiter allows exactly one event per configured
	// duration, matching the "at most once per window" throttle contract;
	// it starts full so the first packet is never held back.
	p.bweLimiter = rate.NewLimiter(rate.Every(p.config.BWEFeedbackDuration), 1)
	p.telemetryLimiter = rate.NewLimiter(rate.Every(p.config.TelemetryFlushInterval), 1)

	if err := p.telemetry.Connect(config.RedisIP, config.RedisPort); err != nil {
		p.log.Errorf("twcc: telemetry store connect failed, continuing with degraded telemetry: %v", err)
	}
	if err := p.telemetry.SetConfig(config.RedisSessionID, "struct"); err != nil {
		p.log.Errorf("twcc: telemetry store configure failed: %v", err)
	}

	return p, nil
}

// IncomingPacket is the Proxy's entry point for arriving media packets.
func (p *Proxy) IncomingPacket(arrivalMs int64, payloadSize int, header PacketHeader) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !header.HasTransportSequenceNumber {
		if !p.loggedMissingSeqExt {
			p.loggedMissingSeqExt = true
			p.log.Warn("twcc: incoming packet is missing the transport sequence number extension")
		}

		return
	}

	p.mediaSSRC = header.SSRC
	_, ok := p.onPacketArrival(header.TransportSequenceNumber, arrivalMs, header.FeedbackRequest)
	if !ok {
		return
	}

	sendTimeMs := p.absSendTime.Convert(header.AbsoluteSendTime)
	if p.predictor != nil {
		p.predictor.OnReceived(header.PayloadType, header.SequenceNumber, sendTimeMs, header.SSRC,
			header.PaddingLength, header.HeaderLength, arrivalMs, payloadSize, -1, -1)
	}

	nowMs := p.clock.TimeInMilliseconds()

	var pacingRate, paddingRate float64
	if p.predictor != nil && p.bweSendbackDue(nowMs) {
		estimate := p.currentEstimate()
		pacingRate, paddingRate = float64(estimate), float64(estimate)

		msg := BweMessage{PacingRate: estimate, PaddingRate: estimate, TargetRate: estimate, TimestampMs: nowMs}
		if err := p.sender.SendApplicationPacket(BuildBweApplicationPacket(p.senderSSRC, msg)); err != nil {
			p.log.Errorf("twcc: send BWE application packet: %v", err)
		}
	}

	p.telemetry.Collect(TelemetryRow{
		PacingRate: pacingRate, PaddingRate: paddingRate,
		PayloadType: header.PayloadType, SequenceNumber: header.SequenceNumber,
		SendTimeMs: sendTimeMs, SSRC: header.SSRC,
		PaddingLen: header.PaddingLength, HeaderLen: header.HeaderLength,
		ArrivalMs: arrivalMs, PayloadSize: payloadSize,
	})

	if p.telemetryFlushDue(nowMs) {
		p.flushTelemetry()
	}
}

// onPacketArrival implements §4.3. It returns the unwrapped sequence
// number and whether arrivalMs passed validation. Callers hold p.mu.
func (p *Proxy) onPacketArrival(seqWire uint16, arrivalMs int64, req *FeedbackRequest) (int64, bool) {
	if arrivalMs < 0 || arrivalMs > maxTimeMs {
		p.log.Warnf("twcc: arrival time out of bounds: %d", arrivalMs)

		return 0, false
	}

	seq := p.unwrapper.Unwrap(seqWire)

	if p.sendPeriodicFeedback {
		if p.periodicWindowStart != nil && len(p.arrivals.RangeFrom(*p.periodicWindowStart)) == 0 {
			p.arrivals.CullStaleBefore(seq, arrivalMs, p.config.BackWindow.Milliseconds())
		}
		if p.periodicWindowStart == nil || seq < *p.periodicWindowStart {
			windowStart := seq
			p.periodicWindowStart = &windowStart
		}
	}

	if !p.arrivals.Insert(seq, arrivalMs) {
		// Duplicate / retransmit: only the first-seen arrival is kept.
		return seq, true
	}

	if maxKey, ok := p.arrivals.MaxKey(); ok && p.arrivals.EnforceBound(maxKey) {
		if p.sendPeriodicFeedback {
			if minKey, ok := p.arrivals.MinKey(); ok {
				p.periodicWindowStart = &minKey
			}
		}
	}

	if req != nil {
		p.sendFeedbackOnRequest(seq, *req)
	}

	return seq, true
}

// bweSendbackDue reports whether the BWE sendback throttle allows an event
// at nowMs, consuming its token if so. Callers hold p.mu.
func (p *Proxy) bweSendbackDue(nowMs int64) bool {
	return p.bweLimiter.AllowN(time.UnixMilli(nowMs), 1)
}

func (p *Proxy) currentEstimate() float32 {
	if p.predictor == nil {
		return 0
	}

	return p.predictor.GetBWEEstimate()
}

// telemetryFlushDue reports whether the telemetry flush throttle allows an
// event at nowMs, consuming its token if so. Callers hold p.mu.
func (p *Proxy) telemetryFlushDue(nowMs int64) bool {
	return p.telemetryLimiter.AllowN(time.UnixMilli(nowMs), 1)
}

// flushTelemetry implements the bounded-retry flush policy of §4.5/§7.
// Callers hold p.mu.
func (p *Proxy) flushTelemetry() {
	for attempt := 0; ; attempt++ {
		switch p.telemetry.Save() {
		case TelemetrySaveOK:
			return
		case TelemetrySaveConnectError:
			if attempt >= p.config.TelemetryRetries {
				p.log.Error("twcc: telemetry flush failed after retries (connect error), dropping")

				return
			}
			if err := p.telemetry.Connect(p.config.RedisIP, p.config.RedisPort); err != nil {
				p.log.Errorf("twcc: telemetry reconnect failed: %v", err)
			}
		case TelemetrySaveSessionError, TelemetrySaveTypeError:
			if attempt >= p.config.TelemetryRetries {
				p.log.Error("twcc: telemetry flush failed after retries (session/type error), dropping")

				return
			}
			if err := p.telemetry.SetConfig(p.config.RedisSessionID, "struct"); err != nil {
				p.log.Errorf("twcc: telemetry reconfigure failed: %v", err)
			}
		default:
			p.log.Error("twcc: telemetry flush failed, dropping")

			return
		}
	}
}

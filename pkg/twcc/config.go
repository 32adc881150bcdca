// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"time"

	"github.com/pion/logging"
)

// TwccReportSize is the assumed on-wire size, in bytes, of one transport
// feedback report: IPv4(20) + UDP(8) + SRTP(10) + an average TWCC payload
// of 30 bytes. It anchors the bitrate-fraction interval computation in
// OnBitrateChanged.
const TwccReportSize = 20 + 8 + 10 + 30

// Config is an immutable snapshot of Proxy configuration captured at
// construction time; it is never re-read at runtime.
type Config struct {
	// DefaultInterval is the periodic feedback interval used before the
	// first OnBitrateChanged call.
	DefaultInterval time.Duration
	// MinInterval and MaxInterval bound the adaptive send interval.
	MinInterval, MaxInterval time.Duration
	// BandwidthFraction is the share of bitrate_bps feedback reports are
	// allowed to occupy, e.g. 0.05 for 5%.
	BandwidthFraction float64
	// BackWindow is the minimum age an arrival must reach before it may be
	// culled once its reporting window has closed.
	BackWindow time.Duration
	// BWEFeedbackDuration throttles BWE sendback to at most once per
	// interval.
	BWEFeedbackDuration time.Duration
	// TelemetryFlushInterval throttles telemetry flush to at most once per
	// interval.
	TelemetryFlushInterval time.Duration
	// TelemetryRetries bounds the telemetry flush retry loop.
	TelemetryRetries int

	// OnnxModelPath, RedisIP, RedisPort and RedisSessionID are collaborator
	// bootstrap parameters. The Proxy passes RedisIP and RedisPort to
	// TelemetryStore.Connect and RedisSessionID to TelemetryStore.SetConfig;
	// it does not read OnnxModelPath. The default in-process adapters in
	// this package ignore them.
	OnnxModelPath  string
	RedisIP        string
	RedisPort      int
	RedisSessionID string
}

// DefaultConfig returns the configuration used when no Options are given.
func DefaultConfig() Config {
	return Config{
		DefaultInterval:        100 * time.Millisecond,
		MinInterval:            50 * time.Millisecond,
		MaxInterval:            250 * time.Millisecond,
		BandwidthFraction:      0.05,
		BackWindow:             500 * time.Millisecond,
		BWEFeedbackDuration:    200 * time.Millisecond,
		TelemetryFlushInterval: time.Second,
		TelemetryRetries:       3,
	}
}

// Option configures a Proxy at construction time.
type Option func(*Proxy) error

// WithDefaultInterval sets the periodic feedback interval used before the
// first bitrate sample arrives.
func WithDefaultInterval(d time.Duration) Option {
	return func(p *Proxy) error {
		p.config.DefaultInterval = d
		p.sendIntervalMs = d.Milliseconds()

		return nil
	}
}

// WithIntervalBounds sets the [min, max] clamp for the adaptive send
// interval.
func WithIntervalBounds(minInterval, maxInterval time.Duration) Option {
	return func(p *Proxy) error {
		p.config.MinInterval = minInterval
		p.config.MaxInterval = maxInterval

		return nil
	}
}

// WithBandwidthFraction sets the share of bitrate feedback reports may
// occupy.
func WithBandwidthFraction(fraction float64) Option {
	return func(p *Proxy) error {
		p.config.BandwidthFraction = fraction

		return nil
	}
}

// WithBackWindow sets the minimum age before a superseded window entry may
// be culled.
func WithBackWindow(d time.Duration) Option {
	return func(p *Proxy) error {
		p.config.BackWindow = d

		return nil
	}
}

// WithBWEFeedbackDuration sets the BWE sendback throttle interval.
func WithBWEFeedbackDuration(d time.Duration) Option {
	return func(p *Proxy) error {
		p.config.BWEFeedbackDuration = d

		return nil
	}
}

// WithTelemetryFlushInterval sets the telemetry flush throttle interval.
func WithTelemetryFlushInterval(d time.Duration) Option {
	return func(p *Proxy) error {
		p.config.TelemetryFlushInterval = d

		return nil
	}
}

// WithTelemetryRetries bounds the telemetry flush retry loop.
func WithTelemetryRetries(n int) Option {
	return func(p *Proxy) error {
		p.config.TelemetryRetries = n

		return nil
	}
}

// WithPredictor supplies the bandwidth predictor consulted per packet. If
// never called, the Proxy uses a local EWMA-based predictor.
func WithPredictor(predictor Predictor) Option {
	return func(p *Proxy) error {
		p.predictor = predictor

		return nil
	}
}

// WithTelemetryStore supplies the telemetry sink. If never called, the
// Proxy uses an in-memory store that never fails.
func WithTelemetryStore(store TelemetryStore) Option {
	return func(p *Proxy) error {
		p.telemetry = store

		return nil
	}
}

// WithClock overrides the time source; intended for tests.
func WithClock(clock Clock) Option {
	return func(p *Proxy) error {
		p.clock = clock

		return nil
	}
}

// WithTickerFactory overrides how RunPeriodicLoop constructs its ticker;
// intended for tests, which substitute a fake driven by hand.
func WithTickerFactory(factory func(time.Duration) ticker) Option {
	return func(p *Proxy) error {
		p.tickerFactory = factory

		return nil
	}
}

// WithLogger overrides the Proxy's logger.
func WithLogger(logger logging.LeveledLogger) Option {
	return func(p *Proxy) error {
		p.log = logger

		return nil
	}
}

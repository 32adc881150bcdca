// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

// ewma is an exponentially weighted moving average with variance tracking.
type ewma struct {
	initialized bool
	alpha       float64
	average     float64
	variance    float64
}

func newEWMA(alpha float64) *ewma {
	return &ewma{alpha: alpha}
}

func (a *ewma) update(sample float64) {
	if !a.initialized {
		a.initialized = true
		a.average = sample

		return
	}
	delta := sample - a.average
	a.average += a.alpha * delta
	a.variance = (1 - a.alpha) * (a.variance + a.alpha*delta*delta)
}

func (a *ewma) avg() float64 { return a.average }

// EWMAPredictor is the default Predictor. It has no notion of congestion;
// it simply tracks an exponentially smoothed estimate of received
// throughput (bits/second) from packet arrival spacing, as a stand-in for
// a real bandwidth estimator such as the onnx-backed one named by
// Config.OnnxModelPath. Wire in a real Predictor via WithPredictor for
// anything beyond local testing.
type EWMAPredictor struct {
	throughput    *ewma
	haveLast      bool
	lastArrivalMs int64
}

// NewEWMAPredictor creates a Predictor smoothing with the given alpha in
// (0, 1]; higher values track recent samples more aggressively.
func NewEWMAPredictor(alpha float64) *EWMAPredictor {
	return &EWMAPredictor{throughput: newEWMA(alpha)}
}

// OnReceived folds one packet's arrival into the throughput estimate.
func (p *EWMAPredictor) OnReceived(_ uint8, _ uint16, _ uint32, _ uint32,
	_, headerLen int, arrivalMs int64, payloadSize int, _, _ int,
) {
	if p.haveLast {
		dtMs := arrivalMs - p.lastArrivalMs
		if dtMs > 0 {
			bitsPerMs := float64(payloadSize+headerLen) * 8 / float64(dtMs)
			p.throughput.update(bitsPerMs)
		}
	}
	p.lastArrivalMs = arrivalMs
	p.haveLast = true
}

// GetBWEEstimate returns the current smoothed throughput estimate in
// bits/second.
func (p *EWMAPredictor) GetBWEEstimate() float32 {
	return float32(p.throughput.avg() * 1000)
}

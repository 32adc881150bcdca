// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Command twccdemo wires a receiver-side Proxy to a sender-side
// SendSideController from the pion/bwe package, to exercise the two halves
// of a transport-wide congestion control loop against each other: the Proxy
// packetizes simulated arrivals into transport feedback reports, and the
// controller consumes them to produce a target rate that feeds back into
// the Proxy's adaptive send interval.
package main

import (
	"fmt"
	"time"

	"github.com/pion/bwe/gcc"
	"github.com/pion/rtcp"

	"github.com/flowpath/tccfeedback/internal/types"
	"github.com/flowpath/tccfeedback/pkg/twcc"
)

// ackRecord is a receiver arrival the demo driver remembers so it can
// forward it to the sender-side controller once the matching feedback
// report is built. A real deployment would recover this by decoding the
// wire packet on the sender; this demo keeps it in memory since it runs
// both halves of the loop in one process.
type ackRecord struct {
	seq                int64
	size               int
	departure, arrival time.Time
}

// loopSender is a twcc.FeedbackSender that, on every transport feedback
// report, drains the pending acks into the controller and records the
// resulting rate. The Proxy holds its lock while calling the sender, so
// main feeds the recorded rate back into the Proxy after Process returns.
type loopSender struct {
	controller *gcc.SendSideController
	pending    []ackRecord
	rtt        time.Duration
	targetRate types.DataRate
}

func (s *loopSender) SendTransportFeedback(pkt *rtcp.TransportLayerCC) error {
	fmt.Printf("feedback: base=%d count=%d\n", pkt.BaseSequenceNumber, pkt.PacketStatusCount)

	for _, a := range s.pending {
		s.controller.OnAck(uint64(a.seq), a.size, a.departure, a.arrival) //nolint:gosec
	}
	s.pending = s.pending[:0]

	rate := s.controller.OnFeedback(time.Now(), s.rtt)
	s.targetRate = types.DataRate(rate)
	fmt.Printf("sender-side target rate: %d bps\n", rate)

	return nil
}

func (s *loopSender) SendApplicationPacket(pkt *rtcp.RawPacket) error {
	fmt.Printf("bwe sendback: %d bytes\n", len(*pkt))

	return nil
}

func main() {
	controller, err := gcc.NewSendSideController(1_000_000, 100_000, 10_000_000)
	if err != nil {
		panic(err)
	}

	sender := &loopSender{controller: controller, rtt: 30 * time.Millisecond}

	proxy, err := twcc.NewProxy(0xC0FFEE, sender, twcc.WithDefaultInterval(100*time.Millisecond))
	if err != nil {
		panic(err)
	}

	start := time.Now()
	for i := 0; i < 200; i++ {
		arrival := start.Add(time.Duration(i) * 10 * time.Millisecond)
		departure := arrival.Add(-20 * time.Millisecond)

		seq := uint16(i) //nolint:gosec
		proxy.IncomingPacket(arrival.UnixMilli(), 1200, twcc.PacketHeader{
			SSRC: 1, HasTransportSequenceNumber: true, TransportSequenceNumber: seq,
		})
		sender.pending = append(sender.pending, ackRecord{seq: int64(seq), size: 1200, departure: departure, arrival: arrival})

		if i%10 == 9 {
			proxy.Process()
			if sender.targetRate > 0 {
				proxy.OnBitrateChanged(sender.targetRate)
			}
		}
	}
}

// Package twcc implements the receiver-side transport-wide congestion
// control feedback engine: tracking packet arrivals, packetizing transport
// feedback reports, and driving BWE sendback and telemetry export.
package twcc

import (
	"sync/atomic"

	"github.com/flowpath/tccfeedback/pkg/rtpio"
	"github.com/pion/rtp"
)

// NewHeaderExtensionInterceptor returns a sender-side helper that stamps a
// rtp.TransportCCExtension header onto every outgoing packet with an
// increasing transport sequence number. It is the sender-side counterpart
// exercised by the Proxy's own tests to synthesize realistic traffic; the
// Proxy itself only ever consumes these headers, it never writes them.
func NewHeaderExtensionInterceptor(defaultHdrExtID uint8) (*HeaderExtensionInterceptor, error) {
	return &HeaderExtensionInterceptor{defaultHdrExtID: defaultHdrExtID}, nil
}

// HeaderExtensionInterceptor adds transport wide sequence numbers as header extension to each RTP packet
type HeaderExtensionInterceptor struct {
	nextSequenceNr  uint32
	defaultHdrExtID uint8
}

// Transform transforms a given set of receiver interceptor pipes.
func (h *HeaderExtensionInterceptor) Transform(rtpSink rtpio.RTPWriter, rtcpSink rtpio.RTCPWriter, rtcpSrc rtpio.RTCPReader) rtpio.RTPWriter {
	go rtpio.ConsumeRTCP(rtcpSrc)

	return &headerExtensionRTPWriter{
		interceptor: h,
		rtpSink:     rtpSink,
	}
}

// Close does nothing.
func (h *HeaderExtensionInterceptor) Close() error {
	return nil
}

type headerExtensionRTPWriter struct {
	interceptor *HeaderExtensionInterceptor
	rtpSink     rtpio.RTPWriter
}

// WriteRTP adds a rtp.TransportCCExtension header carrying the next
// transport sequence number to pkt and writes it to the sink.
func (h *headerExtensionRTPWriter) WriteRTP(pkt *rtp.Packet) (int, error) {
	sequenceNumber := atomic.AddUint32(&h.interceptor.nextSequenceNr, 1) - 1

	tcc, err := (&rtp.TransportCCExtension{TransportSequence: uint16(sequenceNumber)}).Marshal()
	if err != nil {
		return 0, err
	}
	if pkt.Header.SetExtension(h.interceptor.defaultHdrExtID, tcc) != nil {
		return 0, err
	}
	return h.rtpSink.WriteRTP(pkt)
}

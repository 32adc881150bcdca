// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"math"

	"github.com/pion/rtcp"
)

// TransportFeedbackPacket is the external wire-encoder contract a single
// transport-feedback report is built against. FeedbackBuilder fills one of
// these per call; AddReceivedPacket reports false once the packet has no
// room left, at which point the builder starts a fresh one.
type TransportFeedbackPacket interface {
	SetMediaSSRC(ssrc uint32)
	SetBase(seq uint16, baseTimeUs int64)
	SetFeedbackSequenceNumber(count uint8)
	AddReceivedPacket(seq uint16, arrivalUs int64) bool
}

// RTCPFeedbackPacket is the default TransportFeedbackPacket, producing a
// pion/rtcp TransportLayerCC.
type RTCPFeedbackPacket struct {
	pkt *rtcp.TransportLayerCC

	baseSequenceNumber  uint16
	refTimestamp64MS    int64
	lastTimestampUS     int64
	nextSequenceNumber  uint16
	sequenceNumberCount uint16
	payloadLen          int
	lastChunk           chunk
	chunks              []rtcp.PacketStatusChunk
	deltas              []*rtcp.RecvDelta
}

// NewRTCPFeedbackPacket creates an empty feedback packet from the given
// sender SSRC.
func NewRTCPFeedbackPacket(senderSSRC uint32) *RTCPFeedbackPacket {
	return &RTCPFeedbackPacket{
		pkt: &rtcp.TransportLayerCC{SenderSSRC: senderSSRC},
	}
}

// SetMediaSSRC sets the media SSRC the report describes.
func (f *RTCPFeedbackPacket) SetMediaSSRC(ssrc uint32) {
	f.pkt.MediaSSRC = ssrc
}

// SetFeedbackSequenceNumber sets the feedback packet counter.
func (f *RTCPFeedbackPacket) SetFeedbackSequenceNumber(count uint8) {
	f.pkt.FbPktCount = count
}

// SetBase records the report's base sequence number and reference time.
// baseTimeUs is the arrival time, in microseconds, of the first reported
// packet.
func (f *RTCPFeedbackPacket) SetBase(seq uint16, baseTimeUs int64) {
	f.baseSequenceNumber = seq
	f.nextSequenceNumber = seq
	f.refTimestamp64MS = baseTimeUs / 64e3
	f.lastTimestampUS = f.refTimestamp64MS * 64e3
}

// AddReceivedPacket appends a received packet's arrival time, backfilling
// any skipped sequence numbers since the last addition as "not received".
// It reports false, without changing the packet, when the arrival's delta
// from the previously added arrival does not fit the 16-bit wire field. It
// places no limit on the number of entries or on the packet size.
func (f *RTCPFeedbackPacket) AddReceivedPacket(seq uint16, arrivalUs int64) bool {
	deltaUS := arrivalUs - f.lastTimestampUS
	delta250US := deltaUS / 250
	if delta250US < math.MinInt16 || delta250US > math.MaxInt16 {
		// Delta doesn't fit into the 16-bit wire field; caller must start a
		// fresh packet at this sequence number.
		return false
	}

	for ; f.nextSequenceNumber != seq; f.nextSequenceNumber++ {
		if !f.lastChunk.canAdd(rtcp.TypeTCCPacketNotReceived) {
			f.chunks = append(f.chunks, f.lastChunk.encode())
		}
		f.lastChunk.add(rtcp.TypeTCCPacketNotReceived)
		f.sequenceNumberCount++
	}

	var recvDelta uint16
	switch {
	case delta250US >= 0 && delta250US <= 0xff:
		f.payloadLen++
		recvDelta = rtcp.TypeTCCPacketReceivedSmallDelta
	default:
		f.payloadLen += 2
		recvDelta = rtcp.TypeTCCPacketReceivedLargeDelta
	}

	if !f.lastChunk.canAdd(recvDelta) {
		f.chunks = append(f.chunks, f.lastChunk.encode())
	}
	f.lastChunk.add(recvDelta)
	f.deltas = append(f.deltas, &rtcp.RecvDelta{Type: recvDelta, Delta: deltaUS})
	f.lastTimestampUS = arrivalUs
	f.sequenceNumberCount++
	f.nextSequenceNumber++

	return true
}

// RTCPPacket finalizes and returns the built TransportLayerCC packet.
func (f *RTCPFeedbackPacket) RTCPPacket() *rtcp.TransportLayerCC {
	f.pkt.PacketStatusCount = f.sequenceNumberCount
	f.pkt.ReferenceTime = uint32(f.refTimestamp64MS) //nolint:gosec
	f.pkt.BaseSequenceNumber = f.baseSequenceNumber

	for len(f.lastChunk.deltas) > 0 {
		f.chunks = append(f.chunks, f.lastChunk.encode())
	}
	f.pkt.PacketChunks = append(f.pkt.PacketChunks, f.chunks...)
	f.pkt.RecvDeltas = f.deltas

	// 4 bytes common header + 16 bytes TWCC header + 2 bytes per chunk + the
	// packed delta bytes.
	padLen := 20 + len(f.pkt.PacketChunks)*2 + f.payloadLen
	padding := padLen%4 != 0
	for padLen%4 != 0 {
		padLen++
	}
	f.pkt.Header = rtcp.Header{
		Count:   rtcp.FormatTCC,
		Type:    rtcp.TypeTransportSpecificFeedback,
		Padding: padding,
		Length:  uint16((padLen / 4) - 1), //nolint:gosec
	}

	return f.pkt
}

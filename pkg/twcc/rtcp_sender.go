// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"github.com/flowpath/tccfeedback/pkg/rtpio"
	"github.com/pion/rtcp"
)

// RTCPFeedbackSender is the default FeedbackSender, writing built packets
// out over an rtpio.RTCPWriter.
type RTCPFeedbackSender struct {
	writer rtpio.RTCPWriter
}

// NewRTCPFeedbackSender wraps writer as a FeedbackSender.
func NewRTCPFeedbackSender(writer rtpio.RTCPWriter) *RTCPFeedbackSender {
	return &RTCPFeedbackSender{writer: writer}
}

// SendTransportFeedback implements FeedbackSender.
func (s *RTCPFeedbackSender) SendTransportFeedback(pkt *rtcp.TransportLayerCC) error {
	_, err := s.writer.WriteRTCP([]rtcp.Packet{pkt})

	return err
}

// SendApplicationPacket implements FeedbackSender.
func (s *RTCPFeedbackSender) SendApplicationPacket(pkt *rtcp.RawPacket) error {
	_, err := s.writer.WriteRTCP([]rtcp.Packet{pkt})

	return err
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"encoding/binary"
	"math"
)

// bweMessageSize is the wire size, in bytes, of a BweMessage: three
// float32 fields plus one int64 field.
const bweMessageSize = 4 + 4 + 4 + 8

// BweMessage is the payload of the BWE sendback application-defined RTCP
// packet. The original ships this as raw host-endian memory; this
// implementation fixes little-endian as the wire byte order so sender and
// receiver built from this package always agree, regardless of host
// architecture.
type BweMessage struct {
	PacingRate  float32
	PaddingRate float32
	TargetRate  float32
	TimestampMs int64
}

// Marshal encodes the message as little-endian bytes.
func (m BweMessage) Marshal() []byte {
	buf := make([]byte, bweMessageSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(m.PacingRate))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(m.PaddingRate))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(m.TargetRate))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(m.TimestampMs)) //nolint:gosec

	return buf
}

// UnmarshalBweMessage decodes a BweMessage from little-endian bytes.
func UnmarshalBweMessage(buf []byte) (BweMessage, bool) {
	if len(buf) < bweMessageSize {
		return BweMessage{}, false
	}

	return BweMessage{
		PacingRate:  math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		PaddingRate: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		TargetRate:  math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		TimestampMs: int64(binary.LittleEndian.Uint64(buf[12:20])), //nolint:gosec
	}, true
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"encoding/binary"

	"github.com/pion/rtcp"
)

// appPacketType is RTCP payload type 204, "application-defined" (RFC 3550
// §6.7). pion/rtcp has no dedicated struct for it, so it is built and
// parsed here as a raw packet, matching how this codebase's pack handles
// other application-specific RTCP extensions.
const appPacketType = 204

// appPacketSubType and appPacketName are the sub-type and 4-character name
// fields fixed per deployment for the BWE sendback packet; receivers must
// agree on this layout out of band.
const appPacketSubType = 0

var appPacketName = [4]byte{'b', 'w', 'e', ' '}

// BuildBweApplicationPacket encodes msg into an RTCP APP packet carrying
// its little-endian BweMessage payload.
func BuildBweApplicationPacket(senderSSRC uint32, msg BweMessage) *rtcp.RawPacket {
	payload := msg.Marshal()

	bodyLen := len(appPacketName) + len(payload)
	padded := bodyLen
	for padded%4 != 0 {
		padded++
	}

	buf := make([]byte, 8+padded)
	buf[0] = 0x80 | appPacketSubType
	buf[1] = appPacketType
	binary.BigEndian.PutUint16(buf[2:4], uint16((8+padded)/4-1)) //nolint:gosec
	binary.BigEndian.PutUint32(buf[4:8], senderSSRC)
	copy(buf[8:8+len(appPacketName)], appPacketName[:])
	copy(buf[8+len(appPacketName):], payload)

	raw := rtcp.RawPacket(buf)

	return &raw
}

// ParseBweApplicationPacket decodes a packet built by
// BuildBweApplicationPacket. It reports false if buf is not a
// well-formed BWE APP packet.
func ParseBweApplicationPacket(buf []byte) (senderSSRC uint32, msg BweMessage, ok bool) {
	if len(buf) < 8+len(appPacketName)+bweMessageSize {
		return 0, BweMessage{}, false
	}
	if buf[1] != appPacketType {
		return 0, BweMessage{}, false
	}

	senderSSRC = binary.BigEndian.Uint32(buf[4:8])
	msg, ok = UnmarshalBweMessage(buf[8+len(appPacketName):])

	return senderSSRC, msg, ok
}

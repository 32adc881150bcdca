// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBweApplicationPacketRoundTrip(t *testing.T) {
	want := BweMessage{PacingRate: 500_000, PaddingRate: 500_000, TargetRate: 500_000, TimestampMs: 42}

	pkt := BuildBweApplicationPacket(0xAABBCCDD, want)

	_, err := pkt.Marshal()
	assert.NoError(t, err)

	ssrc, got, ok := ParseBweApplicationPacket(*pkt)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xAABBCCDD), ssrc)
	assert.Equal(t, want, got)
}

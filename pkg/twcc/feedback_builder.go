// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package twcc

// BuildFeedbackPacket packs a contiguous run of arrivals, starting at
// baseSeq, into pkt. entries must be non-empty and sorted ascending by
// seq; its first element's arrival time becomes the packet's base time.
//
// It returns the next unsent sequence number: either one past the last
// entry packed, or the sequence of the entry that first failed to fit,
// signalling the caller should start a fresh packet there.
func BuildFeedbackPacket(feedbackCount uint8, mediaSSRC uint32, baseSeq int64, entries []arrivalEntry, pkt TransportFeedbackPacket) int64 {
	if len(entries) == 0 {
		panic("twcc: BuildFeedbackPacket called with no entries")
	}

	pkt.SetMediaSSRC(mediaSSRC)
	pkt.SetBase(uint16(baseSeq&0xffff), entries[0].arrivalMs*1000) //nolint:gosec
	pkt.SetFeedbackSequenceNumber(feedbackCount)

	next := baseSeq
	for _, e := range entries {
		if !pkt.AddReceivedPacket(uint16(e.seq&0xffff), e.arrivalMs*1000) { //nolint:gosec
			if e.seq == entries[0].seq {
				panic("twcc: first entry did not fit in an empty feedback packet")
			}

			return e.seq
		}
		next = e.seq + 1
	}

	return next
}

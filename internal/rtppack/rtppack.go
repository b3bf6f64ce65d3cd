// Package rtppack packetizes Annex B NAL units into RTP payloads per
// RFC 6184 (single NAL unit packets, FU-A fragmentation for units that
// don't fit an MTU, STAP-A aggregation for the small SPS/PPS pair at the
// start of an access unit) and reverses the process on receipt.
package rtppack

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtp"

	"github.com/zsiec/h264syntax/internal/h264"
)

const (
	typeSTAPA = 24
	typeFUA   = 28

	fuIndicatorSize = 1
	fuHeaderSize    = 1
	stapaSizeField  = 2

	fuStartBit = 0x80
	fuEndBit   = 0x40
)

// DefaultMTU is the payload size budget Packetizer targets when the
// caller doesn't specify one: the Ethernet-safe 1200 bytes commonly used
// by WebRTC stacks, leaving headroom for IP/UDP/RTP headers below a
// 1500-byte link MTU.
const DefaultMTU = 1200

// Packetizer turns a sequence of Annex B NAL units belonging to one
// access unit into RTP packets, assigning sequence numbers and deciding
// per call whether a unit needs FU-A fragmentation.
type Packetizer struct {
	mtu         int
	payloadType uint8
	ssrc        uint32
	seq         uint16
}

// NewPacketizer constructs a Packetizer. mtu of zero uses [DefaultMTU].
func NewPacketizer(payloadType uint8, ssrc uint32, mtu int) *Packetizer {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &Packetizer{mtu: mtu, payloadType: payloadType, ssrc: ssrc}
}

// Packetize converts nalus (each header byte included, emulation
// prevention still present, no Annex B start code) into RTP packets
// stamped with timestamp, setting the marker bit on the last packet of
// the access unit. A leading SPS and PPS whose STAP-A packet fits within
// the MTU are aggregated into that single packet; every other NAL larger
// than the MTU is split across FU-A fragments.
func (p *Packetizer) Packetize(nalus [][]byte, timestamp uint32) ([]*rtp.Packet, error) {
	var packets []*rtp.Packet

	lastIdx := len(nalus) - 1
	for lastIdx >= 0 && len(nalus[lastIdx]) == 0 {
		lastIdx--
	}

	i := 0
	if agg, consumed := p.tryAggregate(nalus); len(agg) > 0 {
		packets = append(packets, p.newPacket(agg, timestamp, consumed > lastIdx))
		i = consumed
	}

	for ; i < len(nalus); i++ {
		nalu := nalus[i]
		last := i == lastIdx
		if len(nalu) == 0 {
			continue
		}
		if len(nalu) <= p.mtu {
			packets = append(packets, p.newPacket(nalu, timestamp, last))
			continue
		}
		frags, err := p.fragment(nalu, timestamp, last)
		if err != nil {
			return nil, err
		}
		packets = append(packets, frags...)
	}

	return packets, nil
}

// tryAggregate builds a STAP-A payload when the first two NAL units are an
// SPS followed by a PPS and the resulting packet fits within the MTU,
// returning the payload and the count of input units it consumed (2);
// otherwise it returns nil and 0. RFC 6184 permits aggregating more, but
// parameter sets are the only pairing this parser packs together.
func (p *Packetizer) tryAggregate(nalus [][]byte) ([]byte, int) {
	if len(nalus) < 2 || len(nalus[0]) == 0 || len(nalus[1]) == 0 {
		return nil, 0
	}
	hdr0, err0 := h264.NewHeader(nalus[0][0])
	hdr1, err1 := h264.NewHeader(nalus[1][0])
	if err0 != nil || err1 != nil {
		return nil, 0
	}
	if hdr0.UnitType() != h264.UnitTypeSPS || hdr1.UnitType() != h264.UnitTypePPS {
		return nil, 0
	}

	total := stapaSizeField + len(nalus[0]) + stapaSizeField + len(nalus[1])
	if total+1 > p.mtu {
		return nil, 0
	}

	stapNRI := hdr0.RefIdc()
	if hdr1.RefIdc() > stapNRI {
		stapNRI = hdr1.RefIdc()
	}
	payload := make([]byte, 0, total+1)
	payload = append(payload, typeSTAPA|(stapNRI<<5))
	payload = appendSTAPAUnit(payload, nalus[0])
	payload = appendSTAPAUnit(payload, nalus[1])
	return payload, 2
}

func appendSTAPAUnit(dst []byte, nalu []byte) []byte {
	var size [2]byte
	binary.BigEndian.PutUint16(size[:], uint16(len(nalu)))
	dst = append(dst, size[:]...)
	return append(dst, nalu...)
}

// fragment splits a single NAL unit larger than the MTU into FU-A
// fragments.
func (p *Packetizer) fragment(nalu []byte, timestamp uint32, last bool) ([]*rtp.Packet, error) {
	hdr, err := h264.NewHeader(nalu[0])
	if err != nil {
		return nil, fmt.Errorf("rtppack: fragmenting invalid NAL header: %w", err)
	}
	body := nalu[1:]
	fuIndicator := typeFUA | (hdr.RefIdc() << 5)
	nalType := hdr.UnitType().ID()

	chunkSize := p.mtu - fuIndicatorSize - fuHeaderSize
	if chunkSize <= 0 {
		return nil, fmt.Errorf("rtppack: MTU %d too small for FU-A fragmentation", p.mtu)
	}

	var packets []*rtp.Packet
	for offset := 0; offset < len(body); offset += chunkSize {
		end := offset + chunkSize
		if end > len(body) {
			end = len(body)
		}
		fuHeader := nalType
		if offset == 0 {
			fuHeader |= fuStartBit
		}
		isLastFragment := end == len(body)
		if isLastFragment {
			fuHeader |= fuEndBit
		}

		payload := make([]byte, 0, fuIndicatorSize+fuHeaderSize+(end-offset))
		payload = append(payload, fuIndicator, fuHeader)
		payload = append(payload, body[offset:end]...)

		packets = append(packets, p.newPacket(payload, timestamp, last && isLastFragment))
	}
	return packets, nil
}

func (p *Packetizer) newPacket(payload []byte, timestamp uint32, marker bool) *rtp.Packet {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    p.payloadType,
			SequenceNumber: p.seq,
			Timestamp:      timestamp,
			SSRC:           p.ssrc,
			Marker:         marker,
		},
		Payload: payload,
	}
	p.seq++
	return pkt
}

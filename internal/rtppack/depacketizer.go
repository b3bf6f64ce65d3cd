package rtppack

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtp"
)

// Depacketizer reassembles the RTP payloads produced by [Packetizer] (or
// any RFC 6184-conformant sender) back into Annex B NAL units, handling
// FU-A reassembly and STAP-A expansion. It is not safe for concurrent use.
type Depacketizer struct {
	fu       []byte
	fuType   byte
	fuActive bool
}

// NewDepacketizer returns a Depacketizer ready to process an RTP stream
// from its first packet.
func NewDepacketizer() *Depacketizer {
	return &Depacketizer{}
}

// Push processes one RTP packet's payload and returns the complete NAL
// units it yielded, if any (a STAP-A packet yields more than one; a
// non-final FU-A fragment yields none). Returned NAL units still carry
// their header byte and have no Annex B start code.
func (d *Depacketizer) Push(pkt *rtp.Packet) ([][]byte, error) {
	if len(pkt.Payload) == 0 {
		return nil, nil
	}
	naluType := pkt.Payload[0] & 0x1F

	switch naluType {
	case typeFUA:
		return d.pushFUA(pkt.Payload)
	case typeSTAPA:
		return d.pushSTAPA(pkt.Payload)
	default:
		return [][]byte{pkt.Payload}, nil
	}
}

func (d *Depacketizer) pushFUA(payload []byte) ([][]byte, error) {
	if len(payload) < fuIndicatorSize+fuHeaderSize {
		return nil, fmt.Errorf("rtppack: FU-A packet too short (%d bytes)", len(payload))
	}
	fuIndicator := payload[0]
	fuHeader := payload[1]
	body := payload[2:]

	start := fuHeader&fuStartBit != 0
	end := fuHeader&fuEndBit != 0
	naluType := fuHeader & 0x1F

	if start {
		reconstructed := (fuIndicator & 0xE0) | naluType
		d.fu = append(d.fu[:0], reconstructed)
		d.fuType = naluType
		d.fuActive = true
	}
	if !d.fuActive {
		return nil, fmt.Errorf("rtppack: FU-A continuation with no preceding start fragment")
	}
	if naluType != d.fuType {
		d.fuActive = false
		return nil, fmt.Errorf("rtppack: FU-A nal_unit_type changed mid-fragment (%d -> %d)", d.fuType, naluType)
	}
	d.fu = append(d.fu, body...)

	if !end {
		return nil, nil
	}
	d.fuActive = false
	nalu := append([]byte(nil), d.fu...)
	return [][]byte{nalu}, nil
}

func (d *Depacketizer) pushSTAPA(payload []byte) ([][]byte, error) {
	rest := payload[1:]
	var nalus [][]byte
	for len(rest) > stapaSizeField {
		size := binary.BigEndian.Uint16(rest[:stapaSizeField])
		rest = rest[stapaSizeField:]
		if int(size) > len(rest) {
			return nil, fmt.Errorf("rtppack: STAP-A declares size %d, only %d bytes remain", size, len(rest))
		}
		nalus = append(nalus, append([]byte(nil), rest[:size]...))
		rest = rest[size:]
	}
	return nalus, nil
}

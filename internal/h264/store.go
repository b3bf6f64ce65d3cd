package h264

// Store holds the parameter sets accumulated while parsing a bitstream:
// SPS indexed by seq_parameter_set_id (0-31) and PPS indexed by
// pic_parameter_set_id (0-255). Putting an id that is already present
// replaces the prior value, matching encoders that redefine a parameter
// set mid-stream.
type Store struct {
	sps map[uint8]*SPS
	pps map[uint8]*PPS
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{sps: make(map[uint8]*SPS), pps: make(map[uint8]*PPS)}
}

// PutSPS records sps under its own SeqParameterSetID, replacing any
// previous value at that id.
func (s *Store) PutSPS(sps *SPS) {
	s.sps[sps.SeqParameterSetID] = sps
}

// SPS looks up a previously-stored SPS by id.
func (s *Store) SPS(id uint8) (*SPS, bool) {
	sps, ok := s.sps[id]
	return sps, ok
}

// PutPPS records pps under its own PicParameterSetID, replacing any
// previous value at that id.
func (s *Store) PutPPS(pps *PPS) {
	s.pps[pps.PicParameterSetID] = pps
}

// PPS looks up a previously-stored PPS by id.
func (s *Store) PPS(id uint8) (*PPS, bool) {
	pps, ok := s.pps[id]
	return pps, ok
}

// SPSForPPS resolves the SPS referenced by a previously-stored PPS,
// returning false if either the PPS or its SPS is missing from the Store.
func (s *Store) SPSForPPS(ppsID uint8) (*SPS, bool) {
	pps, ok := s.PPS(ppsID)
	if !ok {
		return nil, false
	}
	return s.SPS(pps.SeqParameterSetID)
}

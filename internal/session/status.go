package session

import (
	"time"

	"ttsd/pkg/types"
)

// Snapshot returns a read-only view of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{State: s.state, Generation: s.generation, Err: s.lastErr}
	if s.cur != nil {
		p := s.cur.Paths.Clone()
		snap.Paths = &p
	}
	return snap
}

// Status builds the detailed status response for /status.
func (s *Session) Status() types.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		State:             string(s.state),
		Generation:        s.generation,
		Device:            s.profile.String(),
		Precision:         string(s.profile.Precision),
		Waiting:           s.gate.waiting.Load(),
		Inflight:          s.gate.inflight.Load(),
		LoadsTotal:        s.loadsTotal,
		LoadFailuresTotal: s.loadFailures,
		LastError:         s.lastErr,
		UptimeSeconds:     int64(now.Sub(s.startTime) / time.Second),
		ServerTimeUnix:    now.Unix(),
	}
	if s.cur != nil {
		resp.GPTModelPath = s.cur.Paths.Decoder
		resp.SoVITSModelPath = s.cur.Paths.Vocoder
	}
	return resp
}

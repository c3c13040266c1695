package engine

import "sync/atomic"

// Stats counts the non-fatal events of the error taxonomy. Everything
// here is observable but never interrupts the pipeline.
type Stats struct {
	malformedDetections atomic.Uint64
	overlapDiscarded    atomic.Uint64
	sizeDropped         atomic.Uint64
	staleResponses      atomic.Uint64
	supersededCycles    atomic.Uint64
	providerErrors      atomic.Uint64
	translationsApplied atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the counters
type StatsSnapshot struct {
	MalformedDetections uint64 `json:"malformed_detections"`
	OverlapDiscarded    uint64 `json:"overlap_discarded"`
	SizeDropped         uint64 `json:"size_dropped"`
	StaleResponses      uint64 `json:"stale_responses"`
	SupersededCycles    uint64 `json:"superseded_cycles"`
	ProviderErrors      uint64 `json:"provider_errors"`
	TranslationsApplied uint64 `json:"translations_applied"`
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		MalformedDetections: s.malformedDetections.Load(),
		OverlapDiscarded:    s.overlapDiscarded.Load(),
		SizeDropped:         s.sizeDropped.Load(),
		StaleResponses:      s.staleResponses.Load(),
		SupersededCycles:    s.supersededCycles.Load(),
		ProviderErrors:      s.providerErrors.Load(),
		TranslationsApplied: s.translationsApplied.Load(),
	}
}

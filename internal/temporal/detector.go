// Package temporal computes spread-pattern forensics over duplicate
// content sightings: velocity, burst clustering, and scripted-posting
// interval signatures.
package temporal

import (
	"math"
	"sort"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// Detector derives a TemporalSignal from a sighting timeline.
// Thresholds come from configuration; they are tunable parameters.
type Detector struct {
	cfg model.TemporalConfig
}

// NewDetector creates a detector with the given thresholds
func NewDetector(cfg model.TemporalConfig) *Detector {
	if cfg.RapidVelocity <= 0 {
		cfg.RapidVelocity = 10
	}
	if cfg.ClusterWindow <= 0 {
		cfg.ClusterWindow = 15 * time.Minute
	}
	if cfg.ClusterSize <= 0 {
		cfg.ClusterSize = 5
	}
	if cfg.BotIntervalCV <= 0 {
		cfg.BotIntervalCV = 0.1
	}
	if cfg.MinBotIntervals <= 0 {
		cfg.MinBotIntervals = 3
	}
	if cfg.HighConfidenceAt <= 0 {
		cfg.HighConfidenceAt = 10
	}
	return &Detector{cfg: cfg}
}

// Detect computes the temporal signal for a set of sightings. Fewer than
// two sightings cannot describe spread, so the result is the
// insufficient-data pattern with zero confidence. The returned signal is
// immutable; a recomputation builds a new one.
func (d *Detector) Detect(sightings []model.SourceSighting) model.TemporalSignal {
	if len(sightings) < 2 {
		return model.TemporalSignal{
			Pattern:       model.PatternInsufficientData,
			SightingCount: len(sightings),
		}
	}

	times := make([]time.Time, len(sightings))
	for i, s := range sightings {
		times[i] = s.FirstSeen
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	first := times[0]
	last := times[len(times)-1]

	elapsedHours := last.Sub(first).Hours()
	velocity := float64(len(times)) / math.Max(elapsedHours, 1)

	rapid := velocity > d.cfg.RapidVelocity
	coordinated := d.hasCluster(times)
	botLike := d.hasBotIntervals(times)

	signal := model.TemporalSignal{
		Pattern:           model.PatternOrganic,
		Velocity:          velocity,
		RapidSpread:       rapid,
		CoordinatedTiming: coordinated,
		BotLikeIntervals:  botLike,
		FirstSeen:         first,
		LastSeen:          last,
		SightingCount:     len(times),
		Confidence:        d.confidence(len(times), rapid, coordinated, botLike),
	}

	switch {
	case coordinated || botLike:
		signal.Pattern = model.PatternCoordinated
	case rapid:
		signal.Pattern = model.PatternRapid
	}

	return signal
}

// hasCluster slides a window over the sorted timeline looking for a
// burst: ClusterSize sightings inside any ClusterWindow span. A sliding
// count catches bursts even when the overall spread is slow.
func (d *Detector) hasCluster(times []time.Time) bool {
	if len(times) < d.cfg.ClusterSize {
		return false
	}

	start := 0
	for end := range times {
		for times[end].Sub(times[start]) > d.cfg.ClusterWindow {
			start++
		}
		if end-start+1 >= d.cfg.ClusterSize {
			return true
		}
	}
	return false
}

// hasBotIntervals flags near-identical spacing between consecutive
// sightings. Organic sharing produces noisy intervals; a coefficient of
// variation below the ceiling suggests scripted posting.
func (d *Detector) hasBotIntervals(times []time.Time) bool {
	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, times[i].Sub(times[i-1]).Seconds())
	}
	if len(intervals) < d.cfg.MinBotIntervals {
		return false
	}

	var sum float64
	for _, iv := range intervals {
		sum += iv
	}
	mean := sum / float64(len(intervals))
	if mean <= 0 {
		// All sightings at the same instant: cluster detection owns this case
		return false
	}

	var variance float64
	for _, iv := range intervals {
		variance += (iv - mean) * (iv - mean)
	}
	variance /= float64(len(intervals))

	cv := math.Sqrt(variance) / mean
	return cv < d.cfg.BotIntervalCV
}

// confidence weighs how many flags triggered against the sample size.
// More sightings mean more confidence in the verdict either way.
func (d *Detector) confidence(samples int, flags ...bool) float64 {
	sizeFactor := math.Min(float64(samples)/float64(d.cfg.HighConfidenceAt), 1.0)

	triggered := 0
	for _, f := range flags {
		if f {
			triggered++
		}
	}

	// A clean timeline is itself a finding; flags sharpen it
	base := 0.5 + 0.5*float64(triggered)/float64(len(flags))
	return math.Round(base*sizeFactor*100) / 100
}

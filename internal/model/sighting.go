package model

import "time"

// SourceSighting is one observation of the analyzed content (or a near
// duplicate) at some origin, as returned by the duplicate-content search
type SourceSighting struct {
	Origin          string    `json:"origin"` // URL, platform handle, or domain
	Platform        string    `json:"platform,omitempty"`
	Title           string    `json:"title,omitempty"`
	FirstSeen       time.Time `json:"first_seen"`
	MatchConfidence float64   `json:"match_confidence"` // 0-1
	Verified        bool      `json:"verified"`         // origin responded when probed
}

// TemporalPattern labels the shape of a spread timeline
type TemporalPattern string

const (
	PatternInsufficientData TemporalPattern = "insufficient_data"
	PatternOrganic          TemporalPattern = "organic"
	PatternRapid            TemporalPattern = "rapid_spread"
	PatternCoordinated      TemporalPattern = "coordinated"
)

// TemporalSignal captures spread forensics over a sighting timeline.
// Immutable once computed.
type TemporalSignal struct {
	Pattern           TemporalPattern `json:"pattern"`
	Velocity          float64         `json:"velocity"` // sightings per hour
	RapidSpread       bool            `json:"rapid_spread"`
	CoordinatedTiming bool            `json:"coordinated_timing"`
	BotLikeIntervals  bool            `json:"bot_like_intervals"`
	FirstSeen         time.Time       `json:"first_seen,omitempty"`
	LastSeen          time.Time       `json:"last_seen,omitempty"`
	SightingCount     int             `json:"sighting_count"`
	Confidence        float64         `json:"confidence"` // 0-1
}

package recommend

// Game is one attention-training activity in the static catalog.
// AttentionDemand grades cognitive load on a 1.0-3.0 scale;
// EngagementBias is the baseline preference weight.
type Game struct {
	ID              string
	Name            string
	AttentionDemand float64
	EngagementBias  float64
}

// DefaultCatalog lists the training activities in insertion order.
// Order matters: ties in scoring resolve to the first-defined game.
var DefaultCatalog = []Game{
	{ID: "breath_garden", Name: "Breath Garden", AttentionDemand: 1.0, EngagementBias: 0.70},
	{ID: "color_drift", Name: "Color Drift", AttentionDemand: 1.0, EngagementBias: 0.60},
	{ID: "star_counter", Name: "Star Counter", AttentionDemand: 1.5, EngagementBias: 0.65},
	{ID: "echo_patterns", Name: "Echo Patterns", AttentionDemand: 2.0, EngagementBias: 0.75},
	{ID: "orbit_tracker", Name: "Orbit Tracker", AttentionDemand: 2.5, EngagementBias: 0.55},
	{ID: "signal_storm", Name: "Signal Storm", AttentionDemand: 3.0, EngagementBias: 0.60},
}

// easiestTier is the demand level subject to the graduate penalty
// once a subject's index clears the graduate threshold.
const easiestTier = 1.0

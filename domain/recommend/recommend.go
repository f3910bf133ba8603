// Package recommend selects the next attention-training activity from
// the stability index, session-score history and play history by
// multi-factor scoring with deterministic tie-avoidance.
package recommend

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/montanaflynn/stats"

	"neurosense/domain/core"
	"neurosense/domain/nsi"
)

// Params tune the scoring terms. Defaults() matches the deployed
// configuration; tests rely on these exact values.
type Params struct {
	TrendThreshold  float64 // session-score trend beyond which the target shifts
	TrendStep       float64 // demand increment applied on a trend
	VariabilityWt   float64 // weight of recent score variability
	BiasAmplitude   float64 // amplitude of the per-(subject, game) hash bias
	RotationBonus   float64 // bonus for the rotation slot of the session count
	HistoryPenalty  float64 // penalty per recent play of the same game
	GraduatePenalty float64 // penalty on the easiest tier past GraduateNSI
	GraduateNSI     int
	DefaultStdev    float64 // variability assumed with fewer than 3 scores
}

// Defaults returns the production scoring parameters.
func Defaults() Params {
	return Params{
		TrendThreshold:  0.02,
		TrendStep:       0.25,
		VariabilityWt:   0.5,
		BiasAmplitude:   0.05,
		RotationBonus:   0.1,
		HistoryPenalty:  0.15,
		GraduatePenalty: 0.5,
		GraduateNSI:     70,
		DefaultStdev:    0.3,
	}
}

// Request carries everything the engine needs for one selection.
// SessionScores are chronological; RecentGames are the last plays,
// most recent last.
type Request struct {
	Subject       string
	NSI           int
	SessionScores []float64
	LastGame      string
	RecentGames   []string
}

// Recommendation is the selected activity with its rationale.
type Recommendation struct {
	GameID       string   `json:"game_id"`
	GameName     string   `json:"game_name"`
	Mode         string   `json:"mode"`
	TargetDemand float64  `json:"target_demand"`
	Explanations []string `json:"explanations"`
}

// Engine scores catalog entries against a target attention demand.
type Engine struct {
	catalog []Game
	params  Params
}

// NewEngine creates an engine over the default catalog.
func NewEngine() *Engine {
	return &Engine{catalog: DefaultCatalog, params: Defaults()}
}

// NewEngineWith creates an engine with an explicit catalog and params.
func NewEngineWith(catalog []Game, params Params) *Engine {
	return &Engine{catalog: catalog, params: params}
}

// Recommend picks the highest-scoring activity. Requires at least
// nsi.MinSessions scores; the last-played game is never re-offered
// when an alternative exists. Identical inputs always yield an
// identical selection and explanation list.
func (e *Engine) Recommend(req Request) (*Recommendation, error) {
	if len(req.SessionScores) < nsi.MinSessions {
		return nil, core.ErrInsufficientHistory
	}

	variability := e.recentVariability(req.SessionScores)
	trend := recentTrend(req.SessionScores)
	target := e.targetWithTrend(req.NSI, trend)

	bestIdx := -1
	bestScore := math.Inf(-1)
	for i, g := range e.catalog {
		if g.ID == req.LastGame && len(e.catalog) > 1 {
			continue
		}
		score := e.score(g, i, req, target, variability)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, core.NewShapeError("empty activity catalog")
	}

	chosen := e.catalog[bestIdx]
	return &Recommendation{
		GameID:       chosen.ID,
		GameName:     chosen.Name,
		Mode:         modeLabel(req.NSI, variability),
		TargetDemand: target,
		Explanations: explanations(req.NSI, trend, variability, target, e.params),
	}, nil
}

func (e *Engine) score(g Game, catalogPos int, req Request, target, variability float64) float64 {
	p := e.params

	score := g.EngagementBias
	score -= math.Abs(g.AttentionDemand - target)
	score -= p.VariabilityWt * variability
	score += subjectBias(req.Subject, g.ID, p.BiasAmplitude)

	if catalogPos == len(req.SessionScores)%len(e.catalog) {
		score += p.RotationBonus
	}

	recent := req.RecentGames
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for _, id := range recent {
		if id == g.ID {
			score -= p.HistoryPenalty
		}
	}

	if req.NSI > p.GraduateNSI && g.AttentionDemand <= easiestTier {
		score -= p.GraduatePenalty
	}
	return score
}

// TargetDemand maps the index onto the attention-demand scale with a
// monotone non-decreasing piecewise-linear curve anchored to the
// stabilization / consolidation / challenge bands.
func (e *Engine) TargetDemand(nsiValue int) float64 {
	x := clampF(float64(nsiValue), 0, 100)
	anchors := [][2]float64{{0, 1.0}, {40, 1.5}, {70, 2.25}, {100, 3.0}}
	for i := 1; i < len(anchors); i++ {
		if x <= anchors[i][0] {
			x0, y0 := anchors[i-1][0], anchors[i-1][1]
			x1, y1 := anchors[i][0], anchors[i][1]
			return y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return 3.0
}

func (e *Engine) targetWithTrend(nsiValue int, trend float64) float64 {
	target := e.TargetDemand(nsiValue)
	if trend > e.params.TrendThreshold {
		target += e.params.TrendStep
	} else if trend < -e.params.TrendThreshold {
		target -= e.params.TrendStep
	}
	return clampF(target, 1.0, 3.0)
}

// recentVariability is the population stdev of the last up to 3
// session scores.
func (e *Engine) recentVariability(scores []float64) float64 {
	if len(scores) < 3 {
		return e.params.DefaultStdev
	}
	tail := scores[len(scores)-3:]
	sd, err := stats.StandardDeviationPopulation(tail)
	if err != nil {
		return e.params.DefaultStdev
	}
	return sd
}

// recentTrend compares the mean of the last two scores with the mean
// of the two before them.
func recentTrend(scores []float64) float64 {
	if len(scores) < 3 {
		return 0
	}
	recent := scores[len(scores)-2:]
	lo := len(scores) - 4
	if lo < 0 {
		lo = 0
	}
	earlier := scores[lo : len(scores)-2]
	rm, _ := stats.Mean(recent)
	em, _ := stats.Mean(earlier)
	return rm - em
}

// subjectBias derives a stable pseudo-random offset in
// [0, amplitude) from FNV-1a 64 over "subject|game". The top 16 bits
// of the digest are mapped linearly onto the interval, so the value
// is bit-reproducible across platforms.
func subjectBias(subject, gameID string, amplitude float64) float64 {
	h := fnv.New64a()
	h.Write([]byte(subject))
	h.Write([]byte{'|'})
	h.Write([]byte(gameID))
	top := h.Sum64() >> 48
	return float64(top) / 65536 * amplitude
}

// modeLabel names the NSI band for callers; purely descriptive.
func modeLabel(nsiValue int, variability float64) string {
	switch {
	case nsiValue < 40 || variability > 0.25:
		return "stabilization"
	case nsiValue <= 70:
		return "consolidation"
	default:
		return "challenge"
	}
}

func explanations(nsiValue int, trend, variability, target float64, p Params) []string {
	out := make([]string, 0, 4)

	switch {
	case nsiValue < 40:
		out = append(out, fmt.Sprintf("Stability index %d is low; favoring low-demand activities", nsiValue))
	case nsiValue <= 70:
		out = append(out, fmt.Sprintf("Stability index %d is moderate; consolidating at mid-level demand", nsiValue))
	default:
		out = append(out, fmt.Sprintf("Stability index %d is high; challenging with higher demand", nsiValue))
	}

	switch {
	case trend > p.TrendThreshold:
		out = append(out, "Recent sessions are improving; nudging demand upward")
	case trend < -p.TrendThreshold:
		out = append(out, "Recent sessions are declining; easing demand")
	default:
		out = append(out, "Recent sessions are steady")
	}

	if variability > 0.25 {
		out = append(out, "High score variability; weighting toward familiar difficulty")
	} else {
		out = append(out, "Score variability is within the stable range")
	}

	out = append(out, fmt.Sprintf("Target attention demand %.2f", target))
	return out
}

func clampF(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

package probe

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/geocell"
	"github.com/okian/firewatch/internal/domain/scoring"
	"github.com/okian/firewatch/pkg/logger"
)

// ErrMismatch is returned when responses disagree with local computation.
var ErrMismatch = errors.New("probe: responses do not match local computation")

// verifier recomputes what the service should have returned.
type verifier struct {
	heuristic *scoring.Pipeline
}

func newVerifier(heuristic bool) (*verifier, error) {
	v := &verifier{}
	if heuristic {
		p, err := scoring.NewPipeline(nil, scoring.HeuristicModels())
		if err != nil {
			return nil, err
		}
		v.heuristic = p
	}
	return v, nil
}

// check returns every disagreement between res and local computation.
func (v *verifier) check(ctx context.Context, res *Result) []string {
	var problems []string
	a := res.Assessment

	if a.Ensemble < 0 || a.Ensemble > 1 || math.IsNaN(a.Ensemble) {
		problems = append(problems, fmt.Sprintf("ensemble %v outside [0,1]", a.Ensemble))
	}
	if want := ensemble.Categorize(a.Ensemble); a.Category != string(want) {
		problems = append(problems, fmt.Sprintf("category %s, want %s", a.Category, want))
	}
	if want := ensemble.IsHotspot(a.Ensemble); a.Hotspot != want {
		problems = append(problems, fmt.Sprintf("hotspot %t, want %t", a.Hotspot, want))
	}

	var sum float64
	for _, name := range ensemble.ModelNames {
		p, ok := a.Models[name]
		if !ok {
			problems = append(problems, "missing model "+name)
			continue
		}
		sum += p
	}
	if len(problems) == 0 && !near(sum/float64(len(ensemble.ModelNames)), a.Ensemble) {
		problems = append(problems, fmt.Sprintf("ensemble %v is not the mean of %v", a.Ensemble, a.Models))
	}

	want := features.Build(res.Reading)
	for i, name := range features.Names {
		if got, ok := a.Features[name]; !ok || !near(got, want[i]) {
			problems = append(problems, fmt.Sprintf("feature %s=%v, want %v", name, got, want[i]))
		}
	}

	// The cell level is service configuration, so only the token is checked.
	if _, err := geocell.Parse(a.Cell); err != nil {
		problems = append(problems, fmt.Sprintf("cell %q: %v", a.Cell, err))
	}

	if v.heuristic != nil {
		eval, err := v.heuristic.Evaluate(ctx, res.Reading)
		if err != nil {
			return append(problems, "local evaluation: "+err.Error())
		}
		for name, p := range eval.Result.Models {
			if !near(a.Models[name], p) {
				problems = append(problems, fmt.Sprintf("model %s=%v, want %v", name, a.Models[name], p))
			}
		}
		if !near(a.Ensemble, eval.Result.Ensemble) {
			problems = append(problems, fmt.Sprintf("ensemble %v, want %v", a.Ensemble, eval.Result.Ensemble))
		}
	}
	return problems
}

// verifyAssessments checks each successful result and counts hotspots.
func verifyAssessments(ctx context.Context, config *Config, results []*Result, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying assessments")

	v, err := newVerifier(config.Heuristic)
	if err != nil {
		return err
	}

	checked := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		checked++
		if res.Assessment.Hotspot {
			stats.Hotspots++
		}
		if problems := v.check(ctx, res); len(problems) > 0 {
			stats.Mismatches++
			log.Warn(ctx, "assessment mismatch",
				logger.Int("index", i),
				logger.String("id", res.Assessment.ID),
				logger.Any("problems", problems),
			)
		}
	}
	if checked == 0 {
		return fmt.Errorf("no assessments to verify")
	}
	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatches, checked)
	}
	log.Info(ctx, "assessments verified", logger.Int("checked", checked))
	return nil
}

// verifyHotspotRanking checks that the ranking is ordered and dense and that
// its top entry carries the highest probability seen by this run. Only
// ordering problems are errors; the service may hold cells from other runs.
func verifyHotspotRanking(ctx context.Context, results []*Result, entries []Entry) error {
	log := logger.Get()
	if len(entries) == 0 {
		return fmt.Errorf("empty hotspot ranking")
	}
	if entries[0].Rank != 1 {
		return fmt.Errorf("top entry has rank %d, want 1", entries[0].Rank)
	}

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.Probability > prev.Probability {
			return fmt.Errorf("ranking not sorted: entry %d above entry %d", i, i-1)
		}
		wantRank := prev.Rank
		if cur.Probability < prev.Probability {
			wantRank++
		}
		if cur.Rank != wantRank {
			return fmt.Errorf("entry %d has rank %d, want %d", i, cur.Rank, wantRank)
		}
	}
	for _, e := range entries {
		if want := ensemble.Categorize(e.Probability); e.Category != string(want) {
			return fmt.Errorf("cell %s has category %s, want %s", e.Cell, e.Category, want)
		}
	}

	best := math.Inf(-1)
	for _, res := range results {
		if res != nil {
			best = math.Max(best, res.Assessment.Ensemble)
		}
	}
	if top := entries[0].Probability; top < best && !near(top, best) {
		log.Warn(ctx, "top hotspot below the best assessment of this run",
			logger.Float64("top", top),
			logger.Float64("best", best),
		)
	}

	log.Info(ctx, "hotspot ranking verified", logger.Int("entries", len(entries)))
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

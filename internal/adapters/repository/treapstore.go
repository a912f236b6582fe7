package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: probability DESC, then cell token ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the hotspot list
// from most to least likely to burn.

// probScale controls fixed-point scaling of probabilities so that equal
// probabilities compare equal after float noise.
const probScale = 1_000_000_000_000

type probFP int64

func toFixedPoint(p float64) probFP {
	return probFP(math.Round(p * probScale))
}

// treap node
type node struct {
	cell  string
	prob  probFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aProb, aCell) should appear before (bProb, bCell).
func less(aProb probFP, aCell string, bProb probFP, bCell string) bool {
	if aProb != bProb {
		return aProb > bProb
	}
	return aCell < bCell
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, cell string, prob probFP, prio uint64) *node {
	if n == nil {
		return &node{cell: cell, prob: prob, prio: prio, size: 1}
	}
	if less(prob, cell, n.prob, n.cell) {
		n.left = insert(n.left, cell, prob, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, cell, prob, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, cell string, prob probFP) *node {
	if n == nil {
		return nil
	}
	if prob == n.prob && cell == n.cell {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, cell, prob)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, cell, prob)
		}
	} else if less(prob, cell, n.prob, n.cell) {
		n.left = deleteNode(n.left, cell, prob)
	} else {
		n.right = deleteNode(n.right, cell, prob)
	}
	fix(n)
	return n
}

// record is the stored state of a cell.
type record struct {
	prob  probFP
	score model.CellScore
}

// collect appends up to limit entries in rank order.
func collect(n *node, limit int, byCell map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, byCell, out)
	if len(*out) < limit {
		if rec, ok := byCell[n.cell]; ok {
			*out = append(*out, Entry{CellScore: rec.score})
		}
	}
	if len(*out) < limit {
		collect(n.right, limit, byCell, out)
	}
}

// TreapStore ranks cells by their latest ensemble probability.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byCell map[string]record
	closed bool

	clock                 clockwork.Clock
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a treap store and starts its metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byCell:                make(map[string]record),
		clock:                 clockwork.NewRealClock(),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutine. Reads keep working; writes fail.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Record implements Store.Record with O(log n) expected time.
func (s *TreapStore) Record(ctx context.Context, score model.CellScore) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if score.Cell == "" {
		return fmt.Errorf("%w: empty cell", ErrInvalidScore)
	}
	if math.IsNaN(score.Probability) || score.Probability < 0 || score.Probability > 1 {
		return fmt.Errorf("%w: probability %v", ErrInvalidScore, score.Probability)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := toFixedPoint(score.Probability)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if old, ok := s.byCell[score.Cell]; ok {
		s.root = deleteNode(s.root, score.Cell, old.prob)
	}
	s.byCell[score.Cell] = record{prob: p, score: score}
	s.root = insert(s.root, score.Cell, p, rand.Uint64()) //nolint:gosec // treap priorities need no crypto
	count := len(s.byCell)
	s.mu.Unlock()

	metrics.UpdateTrackedCells(count)
	return nil
}

// Rank returns the current rank and score for a cell.
func (s *TreapStore) Rank(ctx context.Context, cell string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byCell[cell]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	all := make([]Entry, 0, len(s.byCell))
	collect(s.root, len(s.byCell), s.byCell, &all)
	assignRanksWithTies(all)

	for _, e := range all {
		if e.Cell == cell {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// TopN returns the top N entries ordered by probability desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byCell)))
	collect(s.root, n, s.byCell, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of tracked cells.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCell)
}

// startMetricsUpdater refreshes the tracked-cells gauge periodically.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	ticker := s.clock.NewTicker(s.metricsUpdateInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.Chan():
				metrics.UpdateTrackedCells(s.Count(ctx))
			}
		}
	}()
}

// assignRanksWithTies assigns dense ranks: equal probabilities share a rank
// and the next distinct probability gets the next rank.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || toFixedPoint(entries[i].Probability) != toFixedPoint(entries[i-1].Probability) {
			rank++
		}
		entries[i].Rank = rank
	}
}

// Package linkpred suggests accounts to follow with classic link prediction
// heuristics over the follow graph. Suggestions are returned as a
// probability distribution: weights sum to 1 or the map is empty.
package linkpred

import (
	"context"
	"math"
	"sort"

	"github.com/Luismorlan/feedsim/graph"
	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"gonum.org/v1/gonum/floats"
)

type predictorStore interface {
	UserByID(ctx context.Context, id int64) (model.User, error)
	RandomUserIds(ctx context.Context, limit int) ([]int64, error)
	InDegreeRanking(ctx context.Context, limit int) ([]store.Degree, error)
	EventCounts(ctx context.Context, userIds []int64) (map[int64]int64, error)
	Leanings(ctx context.Context, userIds []int64) (map[int64]string, error)
}

type neighbourhood interface {
	TwoHop(ctx context.Context, seed int64) (graph.Set, map[int64]graph.Set, error)
}

// Predictor computes follow suggestions. It holds no state across calls.
type Predictor struct {
	store predictorStore
	graph neighbourhood
}

func NewPredictor(store predictorStore, graph neighbourhood) *Predictor {
	return &Predictor{store: store, graph: graph}
}

// Suggest returns follow candidates for userId with their probability.
//
// nNeighbors bounds the random and preferential_attachment pools. The
// neighbourhood strategies score every two-hop candidate.
// leaningBias multiplies the weight of candidates sharing the requester's
// leaning before the final normalization: 0 removes them, values above 1
// favour them.
// A user without a profile yields store.ErrNotFound.
func (p *Predictor) Suggest(ctx context.Context, userId int64, nNeighbors int, leaningBias int, strategy model.FollowStrategy) (map[int64]float64, error) {
	user, err := p.store.UserByID(ctx, userId)
	if err != nil {
		return nil, err
	}

	var weights map[int64]float64
	switch strategy {
	case model.FollowStrategyPreferentialAttachment:
		weights, err = p.preferentialAttachment(ctx, nNeighbors)
	case model.FollowStrategyCommonNeighbors:
		weights, err = p.commonNeighbors(ctx, userId)
	case model.FollowStrategyJaccard:
		weights, err = p.jaccard(ctx, userId)
	case model.FollowStrategyAdamicAdar:
		weights, err = p.adamicAdar(ctx, userId)
	default:
		weights, err = p.random(ctx, nNeighbors)
	}
	if err != nil {
		return nil, err
	}

	weights = Normalize(weights)
	return p.biasLeaning(ctx, user, weights, leaningBias)
}

func (p *Predictor) random(ctx context.Context, n int) (map[int64]float64, error) {
	weights := map[int64]float64{}
	ids, err := p.store.RandomUserIds(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		weights[id] = 1 / float64(n)
	}
	return weights, nil
}

func (p *Predictor) preferentialAttachment(ctx context.Context, n int) (map[int64]float64, error) {
	weights := map[int64]float64{}
	ranking, err := p.store.InDegreeRanking(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, d := range ranking {
		weights[d.UserID] = float64(d.Total)
	}
	return weights, nil
}

func (p *Predictor) commonNeighbors(ctx context.Context, seed int64) (map[int64]float64, error) {
	first, candidates, err := p.graph.TwoHop(ctx, seed)
	if err != nil {
		return nil, err
	}
	weights := map[int64]float64{}
	for c, neighbours := range candidates {
		weights[c] = float64(neighbours.Intersect(first))
	}
	return weights, nil
}

func (p *Predictor) jaccard(ctx context.Context, seed int64) (map[int64]float64, error) {
	first, candidates, err := p.graph.TwoHop(ctx, seed)
	if err != nil {
		return nil, err
	}
	weights := map[int64]float64{}
	for c, neighbours := range candidates {
		union := neighbours.Union(first)
		if union == 0 {
			continue
		}
		weights[c] = float64(neighbours.Intersect(first)) / float64(union)
	}
	return weights, nil
}

// adamicAdar sums 1/ln(degree) over the shared neighbours, where degree is
// the number of follow log rows the neighbour issued. A neighbour with a
// single row contributes an infinite term, which disqualifies the candidate
// in Normalize.
func (p *Predictor) adamicAdar(ctx context.Context, seed int64) (map[int64]float64, error) {
	first, candidates, err := p.graph.TwoHop(ctx, seed)
	if err != nil {
		return nil, err
	}

	shared := map[int64][]int64{}
	all := graph.Set{}
	for c, neighbours := range candidates {
		for _, z := range neighbours.Ids() {
			if first[z] {
				shared[c] = append(shared[c], z)
				all[z] = true
			}
		}
	}
	counts, err := p.store.EventCounts(ctx, all.Ids())
	if err != nil {
		return nil, err
	}

	weights := map[int64]float64{}
	for c := range candidates {
		w := 0.0
		for _, z := range shared[c] {
			w += 1 / math.Log(float64(counts[z]))
		}
		weights[c] = w
	}
	return weights, nil
}

func (p *Predictor) biasLeaning(ctx context.Context, user model.User, weights map[int64]float64, bias int) (map[int64]float64, error) {
	if len(weights) == 0 {
		return weights, nil
	}
	ids := make([]int64, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	leanings, err := p.store.Leanings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id := range weights {
		if l, ok := leanings[id]; ok && l == user.Leaning {
			weights[id] *= float64(bias)
		}
	}
	return Normalize(weights), nil
}

// Normalize scales weights to sum to 1. Non-finite and non-positive weights
// are dropped before summing. If nothing is left the result is empty.
func Normalize(weights map[int64]float64) map[int64]float64 {
	ids := make([]int64, 0, len(weights))
	for id, w := range weights {
		if w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	vals := make([]float64, len(ids))
	for i, id := range ids {
		vals[i] = weights[id]
	}
	res := make(map[int64]float64, len(ids))
	total := floats.Sum(vals)
	if total <= 0 || math.IsInf(total, 0) {
		return res
	}
	floats.Scale(1/total, vals)
	for i, id := range ids {
		res[id] = vals[i]
	}
	return res
}

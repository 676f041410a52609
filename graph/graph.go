// Package graph derives the social graph from the append-only follow log.
//
// Two views coexist. Current followers fold the log by parity: a pair is
// connected iff it has an odd number of events. The two-hop neighbourhood
// used by link prediction treats every recorded follow event as a live edge
// and never folds. Both are kept as is, they decide which users are
// eligible for suggestions once unfollows exist.
package graph

import (
	"context"
	"sort"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/pkg/errors"
)

// ErrInvalidAction is returned by Follow for actions other than follow and
// unfollow.
var ErrInvalidAction = errors.New("invalid follow action")

type followStore interface {
	FollowEvents(ctx context.Context, f store.FollowFilter) ([]model.Follow, error)
	CurrentFollowerIds(ctx context.Context, userId int64) ([]int64, error)
	FollowEdges(ctx context.Context, userIds []int64) ([]model.Follow, error)
	AppendFollow(ctx context.Context, ev model.Follow, accept func(last *model.Follow) bool) (bool, error)
}

// Edge is a folded, currently live relationship: UserID reads FollowerID
// since Round.
type Edge struct {
	UserID     int64 `json:"user_id"`
	FollowerID int64 `json:"follower_id"`
	Round      int64 `json:"since_round"`
}

// Set is a set of user ids.
type Set map[int64]bool

// Ids returns the members in ascending order.
func (s Set) Ids() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Intersect returns |s ∩ o|.
func (s Set) Intersect(o Set) int {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if large[id] {
			n++
		}
	}
	return n
}

// Union returns |s ∪ o|.
func (s Set) Union(o Set) int {
	return len(s) + len(o) - s.Intersect(o)
}

// Accessor reads the social graph out of the event store.
type Accessor struct {
	store followStore
}

func NewAccessor(store followStore) *Accessor {
	return &Accessor{store: store}
}

// CurrentFollowers returns, in ascending order, the users that userId
// currently follows by parity of their event count. The user itself is
// never part of the result.
func (a *Accessor) CurrentFollowers(ctx context.Context, userId int64) ([]int64, error) {
	return a.store.CurrentFollowerIds(ctx, userId)
}

// Following is CurrentFollowers with the round of the event that opened each
// edge, folded in memory.
func (a *Accessor) Following(ctx context.Context, userId int64) ([]Edge, error) {
	events, err := a.store.FollowEvents(ctx, store.FollowFilter{UserID: &userId})
	if err != nil {
		return nil, err
	}
	return FoldParity(events), nil
}

// FoldParity folds follow events into the live edges: a pair with an odd
// number of events is live, whatever the recorded actions. Self edges are
// dropped. Events must be in append order, edges come out sorted by user
// then follower.
func FoldParity(events []model.Follow) []Edge {
	type pair struct{ user, follower int64 }
	count := map[pair]int{}
	last := map[pair]int64{}
	for _, ev := range events {
		if ev.UserID == ev.FollowerID {
			continue
		}
		p := pair{ev.UserID, ev.FollowerID}
		count[p]++
		last[p] = ev.Round
	}

	edges := []Edge{}
	for p, n := range count {
		if n%2 == 1 {
			edges = append(edges, Edge{UserID: p.user, FollowerID: p.follower, Round: last[p]})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].UserID != edges[j].UserID {
			return edges[i].UserID < edges[j].UserID
		}
		return edges[i].FollowerID < edges[j].FollowerID
	})
	return edges
}

// TwoHop returns the first order neighbourhood of seed and the candidate
// pool of link prediction: every user reached in two follow hops, mapped to
// its own first order neighbourhood. Only follow events are considered,
// unfollows are ignored and nothing is folded.
func (a *Accessor) TwoHop(ctx context.Context, seed int64) (Set, map[int64]Set, error) {
	firstEdges, err := a.store.FollowEdges(ctx, []int64{seed})
	if err != nil {
		return nil, nil, err
	}
	first := Set{}
	for _, e := range firstEdges {
		first[e.FollowerID] = true
	}

	secondEdges, err := a.store.FollowEdges(ctx, first.Ids())
	if err != nil {
		return nil, nil, err
	}
	second := Set{}
	for _, e := range secondEdges {
		second[e.FollowerID] = true
	}

	thirdEdges, err := a.store.FollowEdges(ctx, second.Ids())
	if err != nil {
		return nil, nil, err
	}
	candidates := map[int64]Set{}
	for _, e := range thirdEdges {
		if _, ok := candidates[e.UserID]; !ok {
			candidates[e.UserID] = Set{}
		}
		candidates[e.UserID][e.FollowerID] = true
	}
	return first, candidates, nil
}

// Follow appends a follow or unfollow event from userId about targetId.
// Self follows, repeating the last recorded action of the pair, and
// unfollowing without any history are refused: the log is left untouched
// and false is returned.
func (a *Accessor) Follow(ctx context.Context, userId, targetId int64, action string, round int64) (bool, error) {
	if !model.IsValidFollowAction(action) {
		return false, errors.Wrapf(ErrInvalidAction, "%q", action)
	}
	if userId == targetId {
		return false, nil
	}
	ev := model.Follow{UserID: userId, FollowerID: targetId, Action: action, Round: round}
	return a.store.AppendFollow(ctx, ev, func(last *model.Follow) bool {
		if last == nil {
			return action == model.FollowActionFollow
		}
		return last.Action != action
	})
}

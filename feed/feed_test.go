package feed

import (
	"context"
	"math"
	"testing"

	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/clock"
	"github.com/Luismorlan/feedsim/graph"
	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/Luismorlan/feedsim/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t        *testing.T
	ctx      context.Context
	store    *store.GormStore
	clock    *clock.StoreClock
	selector *Selector
}

func newTestEnv(t *testing.T) *testEnv {
	s := store.NewGormStore(utils.CreateTempDB(t))
	c := clock.NewStoreClock(s)
	return &testEnv{
		t:        t,
		ctx:      context.Background(),
		store:    s,
		clock:    c,
		selector: NewSelector(s, c, graph.NewAccessor(s), audit.NewStoreLog(s)),
	}
}

// advanceTo moves the clock until the current round id is roundId.
func (e *testEnv) advanceTo(roundId int64) {
	e.t.Helper()
	round, err := e.clock.CurrentRound(e.ctx)
	require.Nil(e.t, err)
	for hour := round.Hour + 1; round.Id < roundId; hour++ {
		round, err = e.clock.Advance(e.ctx, 0, hour)
		require.Nil(e.t, err)
	}
	require.Equal(e.t, roundId, round.Id)
}

func (e *testEnv) user(name string, fields model.User) int64 {
	e.t.Helper()
	fields.Username = name
	require.Nil(e.t, e.store.DB().Create(&fields).Error)
	return fields.Id
}

func (e *testEnv) post(author int64, round int64) int64 {
	e.t.Helper()
	p := model.Post{Tweet: "post", UserID: author, Round: round, CommentTo: model.NoParent}
	require.Nil(e.t, e.store.CreatePost(e.ctx, &p))
	return p.Id
}

func (e *testEnv) article(author int64, round int64) int64 {
	e.t.Helper()
	news := int64(1)
	p := model.Post{Tweet: "article", UserID: author, Round: round, CommentTo: model.NoParent, NewsID: &news}
	require.Nil(e.t, e.store.CreatePost(e.ctx, &p))
	return p.Id
}

func (e *testEnv) comment(author int64, round int64, parent int64) int64 {
	e.t.Helper()
	root, err := e.store.PostByID(e.ctx, parent)
	require.Nil(e.t, err)
	p := model.Post{Tweet: "comment", UserID: author, Round: round, CommentTo: parent, ThreadID: root.ThreadID}
	require.Nil(e.t, e.store.CreatePost(e.ctx, &p))
	return p.Id
}

func (e *testEnv) react(user int64, post int64, kind string) {
	e.t.Helper()
	require.Nil(e.t, e.store.AddReaction(e.ctx, &model.Reaction{UserID: user, PostID: post, Type: kind, Round: 1}))
}

func (e *testEnv) follow(user int64, target int64) {
	e.t.Helper()
	require.Nil(e.t, e.store.DB().Create(&model.Follow{
		UserID: user, FollowerID: target, Action: model.FollowActionFollow, Round: 1,
	}).Error)
}

func (e *testEnv) interests(user int64, iids ...int64) {
	e.t.Helper()
	require.Nil(e.t, e.store.AddUserInterests(e.ctx, user, iids, 1))
}

func (e *testEnv) recommendations(user int64) []model.Recommendation {
	e.t.Helper()
	recs, err := e.store.Recommendations(e.ctx, user)
	require.Nil(e.t, err)
	return recs
}

func (e *testEnv) selectFeed(req Request) []int64 {
	e.t.Helper()
	ids, err := e.selector.Select(e.ctx, req)
	require.Nil(e.t, err)
	return ids
}

func uid(id int64) *int64 {
	return &id
}

func TestSplit(t *testing.T) {
	testCases := []struct {
		limit    int
		ratio    float64
		follower int
		other    int
	}{
		{limit: 10, ratio: 1, follower: 10, other: 0},
		{limit: 10, ratio: 0.5, follower: 5, other: 5},
		{limit: 10, ratio: 0.33, follower: 3, other: 7},
		{limit: 5, ratio: 0.5, follower: 2, other: 3},
		{limit: 10, ratio: 0, follower: 0, other: 10},
		{limit: 10, ratio: 1.5, follower: 10, other: 0},
		{limit: 10, ratio: -0.2, follower: 0, other: 10},
		{limit: 10, ratio: math.NaN(), follower: 10, other: 0},
		{limit: 0, ratio: 0.5, follower: 0, other: 0},
	}
	for _, tc := range testCases {
		f, a := split(tc.limit, tc.ratio)
		assert.Equal(t, tc.follower, f, "limit %d ratio %v", tc.limit, tc.ratio)
		assert.Equal(t, tc.other, a, "limit %d ratio %v", tc.limit, tc.ratio)
	}
}

func TestRChronoVisibilityWindow(t *testing.T) {
	e := newTestEnv(t)
	author := e.user("author", model.User{})
	reader := e.user("reader", model.User{})
	e.advanceTo(5)

	var visible []int64
	for round := int64(1); round <= 5; round++ {
		for i := 0; i < 2; i++ {
			id := e.post(author, round)
			if round >= 3 {
				visible = append([]int64{id}, visible...)
			}
		}
	}

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChrono, Limit: 10, VisibilityRounds: 2, FollowersRatio: 1})
	assert.Equal(t, visible, ids)

	recs := e.recommendations(reader)
	require.Len(t, recs, 1)
	assert.Equal(t, utils.JoinIds(visible), recs[0].PostIds)
	assert.Equal(t, int64(5), recs[0].Round)

	// The author never sees its own posts, and an empty feed is not audited.
	ids = e.selectFeed(Request{UserID: uid(author), Strategy: model.FeedStrategyRChrono, Limit: 10, VisibilityRounds: 2, FollowersRatio: 1})
	assert.Empty(t, ids)
	assert.Empty(t, e.recommendations(author))
}

func TestRChronoIsCapped(t *testing.T) {
	e := newTestEnv(t)
	author := e.user("author", model.User{})
	for i := 0; i < 15; i++ {
		e.post(author, 1)
	}
	ids := e.selectFeed(Request{Strategy: model.FeedStrategyRChrono, Limit: 50, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Len(t, ids, rchronoCap)
}

func TestRChronoPopularity(t *testing.T) {
	e := newTestEnv(t)
	author := e.user("author", model.User{})
	reader := e.user("reader", model.User{})
	p1 := e.post(author, 1)
	p2 := e.post(author, 1)
	p3 := e.post(author, 1)
	e.post(reader, 1)
	e.react(reader, p1, model.ReactionLike)
	e.react(reader, p1, model.ReactionLike)
	e.react(reader, p2, model.ReactionDislike)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoPopularity, Limit: 3, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, []int64{p1, p2, p3}, ids)
}

func TestRChronoFollowersSplit(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	friend := e.user("friend", model.User{})
	stranger := e.user("stranger", model.User{})
	e.follow(reader, friend)

	var friendPosts, strangerPosts []int64
	for i := 0; i < 5; i++ {
		friendPosts = append([]int64{e.post(friend, 1)}, friendPosts...)
	}
	for i := 0; i < 5; i++ {
		strangerPosts = append([]int64{e.post(stranger, 1)}, strangerPosts...)
	}
	e.post(reader, 1)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoFollowers, Limit: 4, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, friendPosts[:4], ids)

	ids = e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoFollowers, Limit: 6, VisibilityRounds: 5, FollowersRatio: 0.5})
	require.Len(t, ids, 6)
	assert.Equal(t, friendPosts[:3], ids[:3])
	assert.Equal(t, strangerPosts[:3], ids[3:])

	// A zero ratio leaves no room for followers.
	ids = e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoFollowers, Limit: 3, VisibilityRounds: 5, FollowersRatio: 0})
	assert.Equal(t, strangerPosts[:3], ids)

	// A user without followers only gets the additional half.
	ids = e.selectFeed(Request{UserID: uid(stranger), Strategy: model.FeedStrategyRChronoFollowers, Limit: 4, VisibilityRounds: 5, FollowersRatio: 0.5})
	assert.Len(t, ids, 2)
}

func TestRChronoFollowersPopularity(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	friend := e.user("friend", model.User{})
	e.follow(reader, friend)
	quiet := e.post(friend, 1)
	loud := e.post(friend, 1)
	e.react(reader, quiet, model.ReactionLike)
	e.react(reader, quiet, model.ReactionLike)
	e.react(reader, loud, model.ReactionLike)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoFollowersPopularity, Limit: 2, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, []int64{quiet, loud}, ids)
}

// The additional half of rchrono_comments repeats the follower restricted
// query, so threads show up twice. Changing this changes simulation output.
func TestRChronoCommentsRepeatsFollowerQuery(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	friend := e.user("friend", model.User{})
	stranger := e.user("stranger", model.User{})
	e.follow(reader, friend)

	root := e.post(stranger, 1)
	reply := e.comment(friend, 1, root)
	other := e.post(friend, 1)
	e.post(stranger, 1)
	e.react(reader, reply, model.ReactionLike)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChronoComments, Limit: 4, VisibilityRounds: 5, FollowersRatio: 0.5})
	assert.Equal(t, []int64{reply, other, reply, other}, ids)
}

func TestCommonInterests(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	friend := e.user("friend", model.User{})
	stranger := e.user("stranger", model.User{})
	e.follow(reader, friend)
	e.interests(reader, 1, 2)

	friendBoth := e.post(friend, 1)
	friendOne := e.post(friend, 1)
	strangerOne := e.post(stranger, 1)
	strangerNone := e.post(stranger, 1)
	require.Nil(t, e.store.AddPostTopics(e.ctx, friendBoth, []int64{1, 2}))
	require.Nil(t, e.store.AddPostTopics(e.ctx, friendOne, []int64{2}))
	require.Nil(t, e.store.AddPostTopics(e.ctx, strangerOne, []int64{1, 3}))
	require.Nil(t, e.store.AddPostTopics(e.ctx, strangerNone, []int64{3}))

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyCommonInterests, Limit: 4, VisibilityRounds: 5, FollowersRatio: 0.5})
	assert.Equal(t, []int64{friendBoth, friendOne, strangerOne}, ids)

	ids = e.selectFeed(Request{Strategy: model.FeedStrategyCommonInterests, Limit: 4, VisibilityRounds: 5, FollowersRatio: 0.5})
	assert.Empty(t, ids)
}

func TestCommonUserInterests(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	friend := e.user("friend", model.User{})
	peer := e.user("peer", model.User{})
	e.follow(reader, friend)
	e.interests(reader, 1)
	e.interests(friend, 1)
	e.interests(peer, 1)

	p1 := e.post(reader, 1)
	p2 := e.post(reader, 1)
	p3 := e.post(reader, 1)
	e.react(friend, p1, model.ReactionDislike)
	e.react(peer, p2, model.ReactionLike)
	e.react(peer, p3, model.ReactionLike)
	e.react(peer, p3, model.ReactionLike)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyCommonUserInterests, Limit: 4, VisibilityRounds: 5, FollowersRatio: 0.5})
	assert.Equal(t, []int64{p1, p3, p2}, ids)
}

func TestCommonUserInterestsFallback(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	e.interests(reader, 1)
	p1 := e.post(reader, 1)
	p2 := e.post(reader, 1)

	// Nobody shares an interest: both halves fall back to plain visible
	// posts, the requester's own included.
	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyCommonUserInterests, Limit: 2, VisibilityRounds: 5, FollowersRatio: 0.5})
	require.Len(t, ids, 2)
	for _, id := range ids {
		assert.Contains(t, []int64{p1, p2}, id)
	}
}

func TestSimilarUsers(t *testing.T) {
	e := newTestEnv(t)
	profile := model.User{Leaning: "left", Language: "en", Toxicity: "no", Age: 30, Gender: "f"}
	reader := e.user("reader", profile)
	twin := e.user("twin", profile)
	e.user("opposite", model.User{Leaning: "right", Language: "it", Toxicity: "yes", Age: 90, Gender: "m"})

	byTwin := e.post(twin, 1)
	liked := e.post(reader, 1)
	e.react(twin, liked, model.ReactionLike)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategySimilarUsersPosts, Limit: 1, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, []int64{byTwin}, ids)

	ids = e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategySimilarUsersReact, Limit: 1, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, []int64{liked}, ids)

	_, err := e.selector.Select(e.ctx, Request{Strategy: model.FeedStrategySimilarUsersPosts, Limit: 1, VisibilityRounds: 5, FollowersRatio: 1})
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = e.selector.Select(e.ctx, Request{UserID: uid(999), Strategy: model.FeedStrategySimilarUsersReact, Limit: 1, VisibilityRounds: 5, FollowersRatio: 1})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRandomExcludesRequester(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	author := e.user("author", model.User{})
	e.post(reader, 1)
	p1 := e.post(author, 1)
	p2 := e.post(author, 1)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRandom, Limit: 10, VisibilityRounds: 5, FollowersRatio: 1})
	assert.ElementsMatch(t, []int64{p1, p2}, ids)

	ids = e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRandom, Limit: 0, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Empty(t, ids)
}

func TestArticleFeed(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{Leaning: "left"})
	leftPage := e.user("left_page", model.User{Leaning: "left", IsPage: true})
	rightPage := e.user("right_page", model.User{Leaning: "right", IsPage: true})
	person := e.user("person", model.User{Leaning: "left"})

	leftArticle := e.article(leftPage, 1)
	rightArticle := e.article(rightPage, 1)
	sharedArticle := e.article(person, 1)
	e.post(leftPage, 1)

	ids := e.selectFeed(Request{UserID: uid(reader), Strategy: model.FeedStrategyRChrono, Limit: 10, VisibilityRounds: 5, FollowersRatio: 1, ArticlesOnly: true})
	assert.Equal(t, []int64{leftArticle}, ids)

	ids = e.selectFeed(Request{Strategy: model.FeedStrategyRChrono, Limit: 10, VisibilityRounds: 5, FollowersRatio: 1, ArticlesOnly: true})
	assert.Equal(t, []int64{sharedArticle, rightArticle, leftArticle}, ids)
}

func TestUnknownStrategyIsRandom(t *testing.T) {
	e := newTestEnv(t)
	author := e.user("author", model.User{})
	p := e.post(author, 1)
	ids := e.selectFeed(Request{Strategy: model.ParseFeedStrategy("trending"), Limit: 10, VisibilityRounds: 5, FollowersRatio: 1})
	assert.Equal(t, []int64{p}, ids)
}

func TestSimilarity(t *testing.T) {
	a := model.User{Leaning: "left", Language: "en", EducationLevel: "phd", Gender: "f", Toxicity: "no",
		Oe: "h", Co: "h", Ex: "l", Ag: "l", Ne: "h", Age: 20}
	b := a
	assert.InDelta(t, 11.0, Similarity(a, b), 1e-9)

	b.Age = 170
	assert.InDelta(t, 10-0.5, Similarity(a, b), 1e-9)
	assert.InDelta(t, Similarity(b, a), Similarity(a, b), 1e-9)

	c := model.User{Leaning: "right", Age: 20}
	assert.InDelta(t, 1.0, Similarity(a, c), 1e-9)
}

func TestSearch(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	other := e.user("other", model.User{})
	e.advanceTo(3)

	mine := e.post(reader, 3)
	theirs := e.post(other, 3)
	e.post(other, 3)
	tag, err := e.store.HashtagByName(e.ctx, "#golang")
	require.Nil(t, err)
	require.Nil(t, e.store.TagPost(e.ctx, mine, tag.Id))
	require.Nil(t, e.store.TagPost(e.ctx, theirs, tag.Id))

	ids, err := e.selector.Search(e.ctx, reader, 1)
	assert.Nil(t, err)
	assert.Equal(t, []int64{theirs}, ids)

	ids, err = e.selector.Search(e.ctx, other, 1)
	assert.Nil(t, err)
	assert.Equal(t, []int64{mine}, ids)

	nobody := e.user("nobody", model.User{})
	ids, err = e.selector.Search(e.ctx, nobody, 1)
	assert.Nil(t, err)
	assert.Empty(t, ids)
}

func TestReadMention(t *testing.T) {
	e := newTestEnv(t)
	reader := e.user("reader", model.User{})
	other := e.user("other", model.User{})
	e.advanceTo(2)
	p := e.post(other, 2)
	require.Nil(t, e.store.AddMention(e.ctx, &model.Mention{UserID: reader, PostID: p, Round: 2}))

	ids, err := e.selector.ReadMention(e.ctx, reader, 1)
	assert.Nil(t, err)
	assert.Equal(t, []int64{p}, ids)

	_, err = e.selector.ReadMention(e.ctx, reader, 1)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

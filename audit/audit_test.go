package audit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/Luismorlan/feedsim/utils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	incr   map[string]int64
	counts map[string]int64
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{incr: map[string]int64{}, counts: map[string]int64{}}
}

func (f *fakeCounter) Incr(name string, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incr[name+"#"+tags[0]]++
	return nil
}

func (f *fakeCounter) Count(name string, value int64, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name+"#"+tags[0]] += value
	return nil
}

func (f *fakeCounter) get(m map[string]int64, key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return m[key]
}

type failingLog struct{}

func (failingLog) Record(ctx context.Context, entry FeedServed) error {
	return errors.New("boom")
}

func newEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{Persistent: true},
		watermill.NewStdLogger(false, false),
	)
}

func TestStoreLog(t *testing.T) {
	s := store.NewGormStore(utils.CreateTempDB(t))
	uid := int64(4)
	l := NewStoreLog(s)
	assert.Nil(t, l.Record(context.Background(), FeedServed{
		UserID: &uid, Strategy: model.FeedStrategyRChrono, PostIds: []int64{9, 3, 5}, Round: 2,
	}))

	recs, err := s.Recommendations(context.Background(), uid)
	assert.Nil(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "9|3|5", recs[0].PostIds)
	assert.Equal(t, int64(2), recs[0].Round)

	history, err := History(context.Background(), s, uid)
	assert.Nil(t, err)
	assert.Equal(t, []FeedServed{{UserID: &uid, PostIds: []int64{9, 3, 5}, Round: 2}}, history)

	history, err = History(context.Background(), s, uid+1)
	assert.Nil(t, err)
	assert.Empty(t, history)
}

func TestPublishingLog(t *testing.T) {
	s := store.NewGormStore(utils.CreateTempDB(t))
	bus := newEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := bus.Subscribe(ctx, TopicFeedServed)
	require.Nil(t, err)

	entry := FeedServed{Strategy: model.FeedStrategyRandom, PostIds: []int64{1, 2}, Round: 7}
	assert.Nil(t, NewPublishingLog(NewStoreLog(s), bus).Record(ctx, entry))

	var received *message.Message
	select {
	case received = <-messages:
		received.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("no served feed published")
	}
	var decoded FeedServed
	assert.Nil(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestPublishingLogSkipsFailedRecords(t *testing.T) {
	bus := newEventBus()
	defer bus.Close()

	err := NewPublishingLog(failingLog{}, bus).Record(context.Background(), FeedServed{PostIds: []int64{1}})
	assert.NotNil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	messages, err := bus.Subscribe(ctx, TopicFeedServed)
	require.Nil(t, err)
	for range messages {
		t.Fatal("failed record must not be published")
	}
}

func TestReporterInEngine(t *testing.T) {
	bus := newEventBus()
	counter := newFakeCounter()
	engine := NewEngine([]Module{NewReporter(ReporterConfig{Name: "reporter"}, counter, bus)}, bus)

	publisher := NewPublishingLog(NewStoreLog(store.NewGormStore(utils.CreateTempDB(t))), bus)
	ctx, cancel := context.WithCancel(context.Background())
	assert.Nil(t, publisher.Record(ctx, FeedServed{Strategy: model.FeedStrategyRChrono, PostIds: []int64{1, 2, 3}}))
	assert.Nil(t, publisher.Record(ctx, FeedServed{Strategy: model.FeedStrategyRChrono, PostIds: []int64{4}}))

	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return counter.get(counter.incr, MetricFeedServed+"#strategy:rchrono") == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(4), counter.get(counter.counts, MetricFeedPosts+"#strategy:rchrono"))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after cancel")
	}
	assert.Nil(t, engine.Shutdown())
}

package audit

import (
	"context"
	"encoding/json"

	Logger "github.com/Luismorlan/feedsim/utils/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
)

const (
	MetricFeedServed = "feedsim.feed.served"
	MetricFeedPosts  = "feedsim.feed.posts"
)

// Counter is the part of the statsd client the reporter needs.
// *statsd.Client satisfies it.
type Counter interface {
	Incr(name string, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
}

type ReporterConfig struct {
	Name string
}

// Reporter listens to served feeds and sends per strategy counters to
// Datadog.
type Reporter struct {
	Config     ReporterConfig
	Statsd     Counter
	Subscriber message.Subscriber
}

var _ Module = (*Reporter)(nil)

func NewReporter(config ReporterConfig, statsd Counter, s message.Subscriber) *Reporter {
	return &Reporter{
		Config:     config,
		Statsd:     statsd,
		Subscriber: s,
	}
}

func (r *Reporter) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := r.Subscriber.Subscribe(ctx, TopicFeedServed)
	if err != nil {
		return errors.Wrap(err, "fail to subscribe to served feeds")
	}

	for msg := range messages {
		msg.Ack()

		var entry FeedServed
		if err := json.Unmarshal(msg.Payload, &entry); err != nil {
			Logger.Log.WithError(err).Errorf("drop malformed served feed %s", msg.UUID)
			continue
		}
		r.report(entry)
	}
	return nil
}

func (r *Reporter) Name() string {
	return r.Config.Name
}

func (r *Reporter) report(entry FeedServed) {
	tags := []string{"strategy:" + entry.Strategy.String()}
	if err := r.Statsd.Incr(MetricFeedServed, tags, 1); err != nil {
		Logger.Log.WithError(err).Infoln("cannot report served feed")
	}
	if err := r.Statsd.Count(MetricFeedPosts, int64(len(entry.PostIds)), tags, 1); err != nil {
		Logger.Log.WithError(err).Infoln("cannot report served posts")
	}
}

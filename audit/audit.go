// Package audit records every non-empty feed served by the feed selector and
// fans the records out to monitoring.
package audit

import (
	"context"
	"encoding/json"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/utils"
	Logger "github.com/Luismorlan/feedsim/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
)

const (
	// TopicFeedServed carries one FeedServed event per audited feed.
	TopicFeedServed = "feed_served"
)

// FeedServed is one served feed. It is persisted as a model.Recommendation
// and published on TopicFeedServed.
type FeedServed struct {
	UserID   *int64             `json:"user_id"`
	Strategy model.FeedStrategy `json:"strategy"`
	PostIds  []int64            `json:"post_ids"`
	Round    int64              `json:"round"`
}

// Log is the write-only recommendation log.
type Log interface {
	Record(ctx context.Context, entry FeedServed) error
}

type recommendationWriter interface {
	InsertRecommendation(ctx context.Context, rec *model.Recommendation) error
}

type recommendationReader interface {
	Recommendations(ctx context.Context, userId int64) ([]model.Recommendation, error)
}

// History reads back the feeds served to userId, oldest first. The strategy
// is not persisted and comes back empty.
func History(ctx context.Context, store recommendationReader, userId int64) ([]FeedServed, error) {
	recs, err := store.Recommendations(ctx, userId)
	if err != nil {
		return nil, err
	}
	entries := make([]FeedServed, 0, len(recs))
	for _, rec := range recs {
		ids, err := utils.SplitIds(rec.PostIds)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupted recommendation %d", rec.Id)
		}
		entries = append(entries, FeedServed{UserID: rec.UserID, PostIds: ids, Round: rec.Round})
	}
	return entries, nil
}

// StoreLog persists entries in the recommendations table.
type StoreLog struct {
	store recommendationWriter
}

var _ Log = (*StoreLog)(nil)

func NewStoreLog(store recommendationWriter) *StoreLog {
	return &StoreLog{store: store}
}

func (l *StoreLog) Record(ctx context.Context, entry FeedServed) error {
	return l.store.InsertRecommendation(ctx, &model.Recommendation{
		UserID:  entry.UserID,
		PostIds: utils.JoinIds(entry.PostIds),
		Round:   entry.Round,
	})
}

// PublishingLog decorates another Log and, once the entry is recorded,
// publishes it on TopicFeedServed. Publish failures are logged only, the
// audit row is the source of truth.
type PublishingLog struct {
	inner     Log
	publisher message.Publisher
}

var _ Log = (*PublishingLog)(nil)

func NewPublishingLog(inner Log, publisher message.Publisher) *PublishingLog {
	return &PublishingLog{inner: inner, publisher: publisher}
}

func (l *PublishingLog) Record(ctx context.Context, entry FeedServed) error {
	if err := l.inner.Record(ctx, entry); err != nil {
		return err
	}
	if err := l.publish(entry); err != nil {
		Logger.Log.WithError(err).Warn("fail to publish served feed")
	}
	return nil
}

func (l *PublishingLog) publish(entry FeedServed) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "fail to encode served feed")
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return errors.Wrap(l.publisher.Publish(TopicFeedServed, msg), "fail to publish served feed")
}

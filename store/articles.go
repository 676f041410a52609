package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Transaction runs fn on a store bound to a single database transaction.
// An error returned by fn rolls back every write made through tx.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx *GormStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// WebsiteByRss returns the website registered with site.Rss, registering
// site on first sight. Metadata of a known website is left untouched.
func (s *GormStore) WebsiteByRss(ctx context.Context, site model.Website) (model.Website, error) {
	var existing model.Website
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("rss = ?", site.Rss).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = site
			return tx.Create(&existing).Error
		}
		return err
	})
	return existing, errors.Wrapf(err, "fail to resolve website %s", site.Rss)
}

// ArticleByLink returns the article of article.WebsiteID with article.Link,
// storing article on first sight.
func (s *GormStore) ArticleByLink(ctx context.Context, article model.Article) (model.Article, error) {
	var existing model.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("link = ? AND website_id = ?", article.Link, article.WebsiteID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = article
			return tx.Create(&existing).Error
		}
		return err
	})
	return existing, errors.Wrapf(err, "fail to resolve article %s", article.Link)
}

// AddArticleTopics tags articleId with the topics it is not tagged with yet.
func (s *GormStore) AddArticleTopics(ctx context.Context, articleId int64, topicIds []int64) error {
	if len(topicIds) == 0 {
		return nil
	}
	known := []int64{}
	err := s.db.WithContext(ctx).Model(&model.ArticleTopic{}).
		Where("article_id = ? AND topic_id IN ?", articleId, topicIds).
		Pluck("topic_id", &known).Error
	if err != nil {
		return errors.Wrapf(err, "fail to read topics of article %d", articleId)
	}
	seen := make(map[int64]bool, len(known))
	for _, id := range known {
		seen[id] = true
	}
	rows := []model.ArticleTopic{}
	for _, id := range topicIds {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.ArticleTopic{ArticleID: articleId, TopicID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	err = s.db.WithContext(ctx).Create(&rows).Error
	return errors.Wrapf(err, "fail to tag article %d", articleId)
}

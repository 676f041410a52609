// Package publisher writes agent content into the event store: root posts,
// comments, shares, news articles and reactions, with their hashtags,
// mentions and topics. Every write runs in a single transaction, a failure
// leaves nothing behind.
package publisher

import (
	"context"
	"regexp"
	"strings"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	. "github.com/Luismorlan/feedsim/utils/log"
	"github.com/pkg/errors"
)

const (
	// Root posts ignore hashtags shorter than this, comments and shares keep
	// any non-empty one.
	minRootHashtagLength = 4
)

// handlePattern matches a whole @handle token, so "@al" never matches the
// start of "@alice".
var handlePattern = regexp.MustCompile(`@\w+(?:[.-]\w+)*`)

type contentStore interface {
	UserByID(ctx context.Context, id int64) (model.User, error)
	UserByUsername(ctx context.Context, username string) (model.User, error)
	PostByID(ctx context.Context, id int64) (model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) error
	RedactPost(ctx context.Context, id int64, text string) error
	AddPostTopics(ctx context.Context, postId int64, topicIds []int64) error
	PostTopicIds(ctx context.Context, postId int64) ([]int64, error)
	HashtagByName(ctx context.Context, tag string) (model.Hashtag, error)
	TagPost(ctx context.Context, postId, hashtagId int64) error
	AddMention(ctx context.Context, mention *model.Mention) error
	AddReaction(ctx context.Context, reaction *model.Reaction) error
	InterestByName(ctx context.Context, name string) (model.Interest, error)
	WebsiteByRss(ctx context.Context, site model.Website) (model.Website, error)
	ArticleByLink(ctx context.Context, article model.Article) (model.Article, error)
	AddArticleTopics(ctx context.Context, articleId int64, topicIds []int64) error
}

type txStore interface {
	contentStore
	Transaction(ctx context.Context, fn func(tx *store.GormStore) error) error
}

/*

Draft is the content an agent wants to publish.

UserID: author, must exist
Text: post text, surrounding quotes and dashes are trimmed
Round: round id the content is published in
Hashtags: hashtags as written, e.g. "#golang"
Mentions: handles as written, e.g. "@alice". Unknown handles and the author's
own handle are removed from the stored text.
Topics: topic ids, only used by root posts. Comments and shares inherit the
topics of what they answer.

*/
type Draft struct {
	UserID   int64    `json:"user_id"`
	Text     string   `json:"text"`
	Round    int64    `json:"tid"`
	Hashtags []string `json:"hashtags"`
	Mentions []string `json:"mentions"`
	Topics   []int64  `json:"topics"`
}

/*

NewsDraft is an article brought in by a page, optionally commented.

Text: comment published with the article. An empty text only registers the
article, no post is created.
Title, Summary, Link, FetchedOn: the article, identified by Link within its
website
Publisher, Rss, Leaning, Country, Language, Category: the website, identified
by Rss
Topics: topic names, attached to both the article and the post

*/
type NewsDraft struct {
	UserID    int64    `json:"user_id"`
	Text      string   `json:"tweet"`
	Round     int64    `json:"tid"`
	Hashtags  []string `json:"hashtags"`
	Mentions  []string `json:"mentions"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Link      string   `json:"link"`
	Publisher string   `json:"publisher"`
	Rss       string   `json:"rss"`
	Leaning   string   `json:"leaning"`
	Country   string   `json:"country"`
	Language  string   `json:"language"`
	Category  string   `json:"category"`
	FetchedOn int64    `json:"fetched_on"`
	Topics    []string `json:"topics"`
}

// Publisher is stateless and safe for concurrent use.
type Publisher struct {
	store txStore
}

func NewPublisher(store txStore) *Publisher {
	return &Publisher{store: store}
}

// Post publishes a root post, which opens its own thread.
func (p *Publisher) Post(ctx context.Context, d Draft) (model.Post, error) {
	post := model.Post{CommentTo: model.NoParent, SharedFrom: model.NoParent}
	err := p.store.Transaction(ctx, func(tx *store.GormStore) error {
		if err := publish(ctx, tx, &post, d, minRootHashtagLength); err != nil {
			return err
		}
		return tx.AddPostTopics(ctx, post.Id, d.Topics)
	})
	return post, err
}

// Comment publishes a reply to parentId in the thread of the parent.
func (p *Publisher) Comment(ctx context.Context, parentId int64, d Draft) (model.Post, error) {
	var post model.Post
	err := p.store.Transaction(ctx, func(tx *store.GormStore) error {
		parent, err := tx.PostByID(ctx, parentId)
		if err != nil {
			return err
		}
		thread := parent.Id
		if parent.IsComment() {
			thread = parent.ThreadID
		}
		post = model.Post{CommentTo: parent.Id, ThreadID: thread, SharedFrom: model.NoParent}
		return publish(ctx, tx, &post, d, 1)
	})
	return post, err
}

// Share republishes originalId as a new root post that keeps the article and
// the topics of the original.
func (p *Publisher) Share(ctx context.Context, originalId int64, d Draft) (model.Post, error) {
	var post model.Post
	err := p.store.Transaction(ctx, func(tx *store.GormStore) error {
		original, err := tx.PostByID(ctx, originalId)
		if err != nil {
			return err
		}
		post = model.Post{CommentTo: model.NoParent, SharedFrom: original.Id, NewsID: original.NewsID}
		if err := publish(ctx, tx, &post, d, 1); err != nil {
			return err
		}
		topics, err := tx.PostTopicIds(ctx, original.Id)
		if err != nil {
			return err
		}
		return tx.AddPostTopics(ctx, post.Id, topics)
	})
	return post, err
}

// News registers the website and the article of d, then publishes the
// comment of the page as a root post referencing the article. The returned
// post is nil when d carries no text.
func (p *Publisher) News(ctx context.Context, d NewsDraft) (model.Article, *model.Post, error) {
	var article model.Article
	var post *model.Post
	err := p.store.Transaction(ctx, func(tx *store.GormStore) error {
		if _, err := tx.UserByID(ctx, d.UserID); err != nil {
			return err
		}
		site, err := tx.WebsiteByRss(ctx, model.Website{
			Name:        d.Publisher,
			Rss:         d.Rss,
			Leaning:     d.Leaning,
			Category:    d.Category,
			LastFetched: d.FetchedOn,
			Language:    d.Language,
			Country:     d.Country,
		})
		if err != nil {
			return err
		}
		article, err = tx.ArticleByLink(ctx, model.Article{
			Title:     d.Title,
			Summary:   d.Summary,
			WebsiteID: site.Id,
			Link:      d.Link,
			FetchedOn: d.FetchedOn,
		})
		if err != nil {
			return err
		}
		if cleanText(d.Text) == "" {
			return nil
		}

		newsId := article.Id
		post = &model.Post{CommentTo: model.NoParent, SharedFrom: model.NoParent, NewsID: &newsId}
		draft := Draft{UserID: d.UserID, Text: d.Text, Round: d.Round, Hashtags: d.Hashtags, Mentions: d.Mentions}
		if err := publish(ctx, tx, post, draft, minRootHashtagLength); err != nil {
			return err
		}

		topics := make([]int64, 0, len(d.Topics))
		for _, name := range d.Topics {
			if name == "" {
				continue
			}
			interest, err := tx.InterestByName(ctx, name)
			if err != nil {
				return err
			}
			topics = append(topics, interest.Iid)
		}
		if err := tx.AddArticleTopics(ctx, article.Id, topics); err != nil {
			return err
		}
		return tx.AddPostTopics(ctx, post.Id, topics)
	})
	if err != nil {
		return model.Article{}, nil, err
	}
	return article, post, nil
}

// React appends a like or dislike of userId on postId.
func (p *Publisher) React(ctx context.Context, userId, postId int64, kind string, round int64) error {
	if kind != model.ReactionLike && kind != model.ReactionDislike {
		return errors.Errorf("invalid reaction type %q", kind)
	}
	if _, err := p.store.UserByID(ctx, userId); err != nil {
		return err
	}
	return p.store.AddReaction(ctx, &model.Reaction{UserID: userId, PostID: postId, Type: kind, Round: round})
}

// publish stores post with the text, hashtags and mentions of d. Handles that
// don't resolve to another user are cut out of the stored text.
func publish(ctx context.Context, st contentStore, post *model.Post, d Draft, minHashtagLength int) error {
	author, err := st.UserByID(ctx, d.UserID)
	if err != nil {
		return err
	}
	post.UserID = author.Id
	post.Round = d.Round
	post.Tweet = cleanText(d.Text)
	if err := st.CreatePost(ctx, post); err != nil {
		return err
	}

	for _, tag := range d.Hashtags {
		if len(tag) < minHashtagLength {
			continue
		}
		hashtag, err := st.HashtagByName(ctx, tag)
		if err != nil {
			return err
		}
		if err := st.TagPost(ctx, post.Id, hashtag.Id); err != nil {
			return err
		}
	}

	invalid := map[string]bool{}
	for _, handle := range d.Mentions {
		name := strings.TrimPrefix(handle, "@")
		if name == "" {
			continue
		}
		mentioned, err := st.UserByUsername(ctx, name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err == nil && mentioned.Id != author.Id {
			mention := model.Mention{UserID: mentioned.Id, PostID: post.Id, Round: post.Round}
			if err := st.AddMention(ctx, &mention); err != nil {
				return err
			}
			continue
		}
		invalid["@"+name] = true
	}
	if len(invalid) == 0 {
		return nil
	}

	text := handlePattern.ReplaceAllStringFunc(post.Tweet, func(token string) string {
		if invalid[token] {
			return ""
		}
		return token
	})
	if text = strings.TrimSpace(text); text != post.Tweet {
		Log.Debugf("redact invalid mentions from post %d", post.Id)
		post.Tweet = text
		return st.RedactPost(ctx, post.Id, text)
	}
	return nil
}

func cleanText(text string) string {
	return strings.Trim(strings.Trim(text, `"`), "-")
}

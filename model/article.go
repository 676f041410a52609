package model

/*

Website is a news outlet whose feed pages publish from.

Rss: feed url, identifies the website
Leaning, Category, Language, Country: outlet metadata as reported by the agent
LastFetched: timestamp of the fetch that first registered the website

Article is a news item of a Website, referenced by Post.NewsID. Articles are
identified by (Link, WebsiteID).

ArticleTopic tags an article with a topic of the interest vocabulary.

*/
type Website struct {
	Id          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50" json:"name"`
	Rss         string `gorm:"size:200;uniqueIndex" json:"rss"`
	Leaning     string `gorm:"size:10" json:"leaning"`
	Category    string `gorm:"size:20" json:"category"`
	LastFetched int64  `json:"last_fetched"`
	Language    string `gorm:"size:10" json:"language"`
	Country     string `gorm:"size:10" json:"country"`
}

type Article struct {
	Id        int64  `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"size:200" json:"title"`
	Summary   string `gorm:"size:500" json:"summary"`
	WebsiteID int64  `gorm:"index:idx_article_link" json:"website_id"`
	Link      string `gorm:"size:200;index:idx_article_link" json:"link"`
	FetchedOn int64  `json:"fetched_on"`
}

type ArticleTopic struct {
	Id        int64 `gorm:"primaryKey"`
	ArticleID int64 `gorm:"index"`
	TopicID   int64 `gorm:"index"`
}

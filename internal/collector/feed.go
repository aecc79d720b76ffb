package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// FeedFetcher 拉取 Google Alerts 等 RSS/Atom 订阅
type FeedFetcher struct {
	URLs   []string
	parser *gofeed.Parser
}

func NewFeedFetcher(urls []string, userAgent string, timeout time.Duration) *FeedFetcher {
	p := gofeed.NewParser()
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	p.UserAgent = userAgent
	p.Client = &http.Client{Timeout: timeout}
	return &FeedFetcher{URLs: urls, parser: p}
}

// Fetch 逐个解析订阅。解析失败的订阅按空条目处理，错误只记录在对应的 Result 中。
func (f *FeedFetcher) Fetch(ctx context.Context) ([]Result, error) {
	log.Println("fetching RSS feeds...")

	results := make([]Result, 0, len(f.URLs))
	for _, u := range f.URLs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := f.fetchOne(ctx, u)
		if res.Err != nil {
			log.Printf("failed to parse feed %s: %v", u, res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *FeedFetcher) fetchOne(ctx context.Context, url string) Result {
	res := Result{Source: SourceFeed, URL: url}

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		res.Err = fmt.Errorf("rss: parse feed: %w", err)
		return res
	}

	grants := make([]Grant, 0, len(feed.Items))
	for _, item := range feed.Items {
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		grants = append(grants, Grant{
			Title:       item.Title,
			Link:        item.Link,
			Description: orPlaceholder(desc),
			Source:      SourceFeed,
		})
	}
	res.Grants = grants
	return res
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultDiscussionBaseURL = "https://www.reddit.com"

	discussionMaxResponseBytes = 4 << 20 // 4MB
)

// DiscussionFetcher 通过 Reddit 搜索接口（search.json）抓取资助相关帖子
type DiscussionFetcher struct {
	URLs      []string
	BaseURL   string
	UserAgent string
	Client    *http.Client
	// Pacer 每个 URL 处理完后等待，避免触发 Reddit 的限流
	Pacer Pacer
}

func NewDiscussionFetcher(urls []string, baseURL, userAgent string, timeout time.Duration, pacer Pacer) *DiscussionFetcher {
	return &DiscussionFetcher{
		URLs:      urls,
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
		Pacer:     pacer,
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	// 缺少 selftext 字段（如链接帖）与空字符串需要区分
	Selftext *string `json:"selftext"`
}

// Fetch 依次请求每个搜索 URL，单个 URL 失败不影响其它 URL
func (d *DiscussionFetcher) Fetch(ctx context.Context) ([]Result, error) {
	log.Println("scraping Reddit for grants...")

	results := make([]Result, 0, len(d.URLs))
	for _, u := range d.URLs {
		res := d.fetchOne(ctx, u)
		if res.Err != nil {
			log.Printf("failed to fetch %s: %v", u, res.Err)
		}
		results = append(results, res)

		if d.Pacer != nil {
			if err := d.Pacer.Wait(ctx); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func (d *DiscussionFetcher) fetchOne(ctx context.Context, url string) Result {
	res := Result{Source: SourceDiscussion, URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = fmt.Errorf("reddit: build request: %w", err)
		return res
	}
	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("reddit: fetch: %w", err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("reddit: unexpected status %d", resp.StatusCode)
		return res
	}

	var data listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, discussionMaxResponseBytes)).Decode(&data); err != nil {
		res.Err = fmt.Errorf("reddit: decode response: %w", err)
		return res
	}

	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = DefaultDiscussionBaseURL
	}

	grants := make([]Grant, 0, len(data.Data.Children))
	for _, child := range data.Data.Children {
		p := child.Data
		desc := NoDescription
		if p.Selftext != nil {
			desc = *p.Selftext
		}
		grants = append(grants, Grant{
			Title:       p.Title,
			Link:        base + p.Permalink,
			Description: desc,
			Source:      SourceDiscussion,
		})
	}
	res.Grants = grants
	return res
}

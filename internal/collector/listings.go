package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	log "github.com/sirupsen/logrus"
)

// ListingsFetcher 抓取 Funds for NGOs 分类页上的资助列表
type ListingsFetcher struct {
	UserAgent string
	Timeout   time.Duration
}

func NewListingsFetcher(userAgent string, timeout time.Duration) *ListingsFetcher {
	return &ListingsFetcher{UserAgent: userAgent, Timeout: timeout}
}

// FetchPage 抓取单个分类页。非 2xx 或网络错误只记录在 Result.Err 中，不视为致命错误。
func (l *ListingsFetcher) FetchPage(ctx context.Context, url string) Result {
	res := Result{Source: SourceListings, URL: url}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	log.Printf("scraping: %s", url)

	ua := l.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	// 每个页面使用新的 collector，避免 colly 的已访问记录导致重复运行时被跳过
	c := colly.NewCollector(colly.UserAgent(ua))
	// Timeout 为 0 表示不限时，需要显式覆盖 colly 默认的 10 秒
	c.SetRequestTimeout(l.Timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, base: http.DefaultTransport})

	grants := make([]Grant, 0, 20)

	c.OnHTML("article", func(e *colly.HTMLElement) {
		titleSel := e.DOM.Find("h2.entry-title").First()
		if titleSel.Length() == 0 {
			return
		}
		title := strings.TrimSpace(titleSel.Text())
		href, ok := titleSel.Find("a").First().Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || !ok || href == "" {
			return
		}

		grants = append(grants, Grant{
			Title:       title,
			Link:        e.Request.AbsoluteURL(href),
			Description: summaryText(e.DOM),
			Source:      SourceListings,
		})
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("listings: %s: status %d: %w", url, r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("listings: %s: %w", url, err)
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("listings: visit %s: %w", url, err)
	}
	if fetchErr != nil {
		log.Printf("failed to fetch %s: %v", url, fetchErr)
		res.Err = fetchErr
		return res
	}

	if len(grants) == 0 {
		log.Printf("listings: %s got 0 items", url)
	}
	res.Grants = grants
	return res
}

// summaryText 只有缺少摘要元素时才返回占位文案，空摘要保留为空字符串
func summaryText(article *goquery.Selection) string {
	sum := article.Find("div.entry-summary").First()
	if sum.Length() == 0 {
		return NoDescription
	}
	return strings.TrimSpace(sum.Text())
}

// ctxTransport 把调用方的 ctx 绑定到 colly 发出的每个请求上，取消时立即中断
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

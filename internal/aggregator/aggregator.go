package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LJTian/GrantHub/internal/collector"
	"github.com/LJTian/GrantHub/internal/config"
	"github.com/LJTian/GrantHub/internal/processor"
	log "github.com/sirupsen/logrus"
)

// Report 记录单个 URL 的采集情况，失败原因放在 Error 中
type Report struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

// Snapshot 一轮采集的完整结果，下一轮采集会整体替换它
type Snapshot struct {
	CollectedAt time.Time         `json:"collectedAt"`
	Grants      []collector.Grant `json:"grants"`
	Reports     []Report          `json:"reports"`
}

// Failed 返回失败的采集条目数
func (s *Snapshot) Failed() int {
	n := 0
	for _, r := range s.Reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// PageFetcher 单页采集，对应分类列表站点
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) collector.Result
}

// BatchFetcher 一次处理自身配置的全部 URL
type BatchFetcher interface {
	Fetch(ctx context.Context) ([]collector.Result, error)
}

type Aggregator struct {
	categories []string
	listings   PageFetcher
	discussion BatchFetcher
	feeds      BatchFetcher
	pacer      collector.Pacer
	processor  *processor.SimpleProcessor

	// 同一时间只允许一轮采集，重叠的触发会排队执行
	mu sync.Mutex
}

func New(categories []string, listings PageFetcher, discussion, feeds BatchFetcher, pacer collector.Pacer, p *processor.SimpleProcessor) *Aggregator {
	if p == nil {
		p = processor.NewSimpleProcessor()
	}
	return &Aggregator{
		categories: categories,
		listings:   listings,
		discussion: discussion,
		feeds:      feeds,
		pacer:      pacer,
		processor:  p,
	}
}

// FromConfig 按配置组装三个采集器
func FromConfig(cfg *config.Config) *Aggregator {
	pacer := collector.NewIntervalPacer(cfg.RequestPause)
	return New(
		cfg.Sources.Listings,
		collector.NewListingsFetcher(cfg.UserAgent, cfg.HTTPTimeout),
		collector.NewDiscussionFetcher(cfg.Sources.Discussion, cfg.DiscussionBaseURL, cfg.UserAgent, cfg.HTTPTimeout, pacer),
		collector.NewFeedFetcher(cfg.Sources.Feeds, cfg.UserAgent, cfg.HTTPTimeout),
		pacer,
		processor.NewSimpleProcessor(),
	)
}

// Run 依次执行：分类列表页（按配置顺序，页间暂停）→ Reddit → RSS，结果按抓取顺序拼接。
// 单个来源失败不会中断整轮采集；只有 ctx 被取消时才返回错误。
func (a *Aggregator) Run(ctx context.Context) (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	log.Println("start collect job...")
	results := make([]collector.Result, 0, len(a.categories)+8)

	if a.listings != nil {
		for i, u := range a.categories {
			if i > 0 && a.pacer != nil {
				if err := a.pacer.Wait(ctx); err != nil {
					return nil, fmt.Errorf("aggregator: wait between categories: %w", err)
				}
			}
			results = append(results, a.listings.FetchPage(ctx, u))
		}
	}

	for _, f := range []BatchFetcher{a.discussion, a.feeds} {
		if f == nil {
			continue
		}
		rs, err := f.Fetch(ctx)
		results = append(results, rs...)
		if err != nil {
			return nil, fmt.Errorf("aggregator: %w", err)
		}
	}

	snap := a.build(results)
	log.Printf("collect job done, grants=%d failed=%d", len(snap.Grants), snap.Failed())
	return snap, nil
}

func (a *Aggregator) build(results []collector.Result) *Snapshot {
	var all []collector.Grant
	reports := make([]Report, 0, len(results))
	for _, r := range results {
		rep := Report{Source: r.Source, URL: r.URL, Count: len(r.Grants)}
		if r.Err != nil {
			rep.Error = r.Err.Error()
		}
		reports = append(reports, rep)
		all = append(all, r.Grants...)
	}

	grants := a.processor.Process(all)
	return &Snapshot{
		CollectedAt: time.Now().UTC(),
		Grants:      grants,
		Reports:     reports,
	}
}

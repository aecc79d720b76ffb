package collector

import (
	"context"
	"strings"
	"time"
)

// 各采集器产出记录的来源标识
const (
	SourceListings   = "Funds for NGOs"
	SourceDiscussion = "Reddit"
	SourceFeed       = "Google Alerts RSS"
)

// NoDescription 缺少简介时的占位文案
const NoDescription = "No description"

const DefaultUserAgent = "Mozilla/5.0"

// Grant 统一采集后的资助机会记录
type Grant struct {
	// ID 由 processor 按链接生成，只用作存储层的行键，不参与去重
	ID          string `json:"-"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Result 单个 URL 的采集结果：要么是一批记录，要么是失败原因。
// 失败不会中断整轮采集，只记录在 Err 上。
type Result struct {
	Source string
	URL    string
	Grants []Grant
	Err    error
}

// OK 表示本次采集是否成功
func (r Result) OK() bool {
	return r.Err == nil
}

// Pacer 控制两次外部请求之间的间隔
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer 固定间隔等待；Interval <= 0 时不等待（测试中使用）
type IntervalPacer struct {
	Interval time.Duration
}

func NewIntervalPacer(d time.Duration) *IntervalPacer {
	return &IntervalPacer{Interval: d}
}

func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p == nil || p.Interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// orPlaceholder 空白简介统一替换为占位文案
func orPlaceholder(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDescription
	}
	return s
}

package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/LJTian/GrantHub/internal/collector"
)

// SimpleProcessor 做最基础的字段清洗与 ID 生成。
// 不做去重：同一链接出现多次时全部保留。
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

func (p *SimpleProcessor) Process(items []collector.Grant) []collector.Grant {
	out := make([]collector.Grant, 0, len(items))

	for _, it := range items {
		link := strings.TrimSpace(it.Link)
		out = append(out, collector.Grant{
			ID:          hashURL(link),
			Title:       toValidUTF8(strings.TrimSpace(it.Title)),
			Link:        link,
			Description: toValidUTF8(strings.TrimSpace(it.Description)),
			Source:      it.Source,
		})
	}

	return out
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

// toValidUTF8 替换非法字节，避免写入 PostgreSQL 时报 invalid byte sequence
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Package logging 统一初始化 logrus，各入口启动时调用一次 Setup。
package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup 设置全局日志级别与格式；format 为 json 时输出 JSON，其余为文本
func Setup(level, format string) {
	log.SetOutput(os.Stdout)

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

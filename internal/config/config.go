package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Sources 各采集器的 URL 列表，可通过 SOURCES_FILE（TOML）整体覆盖
type Sources struct {
	Listings   []string `toml:"listings"`
	Discussion []string `toml:"discussion"`
	Feeds      []string `toml:"feeds"`
}

type Config struct {
	AppPort string

	// StoreBackend: memory / file / redis / postgres
	StoreBackend string
	SnapshotPath string
	PostgresDSN  string
	RedisAddr    string
	RedisKey     string

	// CronSpec 为空时不做定时采集，只能通过 /run 或 cmd/collect 触发
	CronSpec string

	UserAgent         string
	RequestPause      time.Duration
	HTTPTimeout       time.Duration
	DiscussionBaseURL string

	SourcesFile string
	Sources     Sources

	LogLevel  string
	LogFormat string
}

func DefaultSources() Sources {
	return Sources{
		Listings: []string{
			"https://www2.fundsforngos.org/category/civil-society/",
			"https://www2.fundsforngos.org/category/education/",
			"https://www2.fundsforngos.org/category/human-rights/",
			"https://www2.fundsforngos.org/category/information-technology/",
			"https://www2.fundsforngos.org/category/science-and-technology/",
			"https://www2.fundsforngos.org/category/peace-and-conflict-resolution/",
		},
		Discussion: []string{
			"https://www.reddit.com/r/grants/search.json?q=grant+opportunities&sort=new&restrict_sr=on",
			"https://www.reddit.com/r/nonprofit/search.json?q=grants&sort=new&restrict_sr=on",
		},
		Feeds: []string{
			"https://www.google.com/alerts/feeds/15471598175210223981/1249085420698810313",
			"https://www.google.com/alerts/feeds/15471598175210223981/1413775523916636761",
			"https://www.google.com/alerts/feeds/15471598175210223981/13238716951020665409",
		},
	}
}

// Load 从环境变量读取配置；当前目录存在 .env 时先加载它（不覆盖已有环境变量）
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("load .env failed: %v", err)
	}

	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "10000"),
		StoreBackend:      getEnv("STORE_BACKEND", "file"),
		SnapshotPath:      getEnv("SNAPSHOT_PATH", "grants.json"),
		PostgresDSN:       getEnv("POSTGRES_DSN", "host=localhost user=granthub password=granthub dbname=granthub port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisKey:          getEnv("REDIS_KEY", "granthub:snapshot"),
		CronSpec:          getEnv("CRON_SPEC", ""),
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0"),
		DiscussionBaseURL: getEnv("DISCUSSION_BASE_URL", "https://www.reddit.com"),
		SourcesFile:       getEnv("SOURCES_FILE", ""),
		Sources:           DefaultSources(),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.RequestPause, err = getDuration("REQUEST_PAUSE", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.SourcesFile != "" {
		src, err := ReadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sources = src
	}

	switch cfg.StoreBackend {
	case "memory", "file", "redis", "postgres":
	default:
		return nil, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// Summary 供启动日志使用；Load 本身不打日志，调用方应在 logging.Setup 之后输出
func (c *Config) Summary() string {
	return fmt.Sprintf("port=%s store=%s cron=%q listings=%d discussion=%d feeds=%d",
		c.AppPort, c.StoreBackend, c.CronSpec,
		len(c.Sources.Listings), len(c.Sources.Discussion), len(c.Sources.Feeds))
}

// ReadSources 读取 TOML 格式的来源列表。文件中未出现的列表保持默认值。
func ReadSources(path string) (Sources, error) {
	src := DefaultSources()
	data, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("config: read sources file: %w", err)
	}

	var override Sources
	md, err := toml.Decode(string(data), &override)
	if err != nil {
		return src, fmt.Errorf("config: decode sources file %s: %w", path, err)
	}
	if md.IsDefined("listings") {
		src.Listings = override.Listings
	}
	if md.IsDefined("discussion") {
		src.Discussion = override.Discussion
	}
	if md.IsDefined("feeds") {
		src.Feeds = override.Feeds
	}
	return src, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s=%q: %w", key, v, err)
	}
	return d, nil
}

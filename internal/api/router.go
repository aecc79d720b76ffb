package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/collector"
	"github.com/LJTian/GrantHub/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Trigger 执行一轮采集并保存结果
type Trigger interface {
	RunOnce(ctx context.Context) (*aggregator.Snapshot, error)
}

type Server struct {
	trigger Trigger
	store   storage.Store
}

func NewServer(trigger Trigger, store storage.Store) *Server {
	return &Server{trigger: trigger, store: store}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	// 持久化模式下根路径不提供说明信息
	if !s.store.Persistent() {
		r.GET("/", s.home)
	}
	r.GET("/health", s.health)
	r.GET("/run", s.run)
	r.GET("/grants", s.grants)
	r.GET("/report", s.report)
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Grant Scraper API is running! Use /run to fetch grants."})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) run(c *gin.Context) {
	// 客户端断开不应中断已经开始的采集
	ctx := context.WithoutCancel(c.Request.Context())

	snap, err := s.trigger.RunOnce(ctx)
	if err != nil {
		log.Errorf("run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !s.store.Persistent() {
		c.JSON(http.StatusOK, grantsOrEmpty(snap.Grants))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Scraping completed",
		"file":    s.store.Location(),
	})
}

func (s *Server) grants(c *gin.Context) {
	snap, ok := s.latest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, grantsOrEmpty(snap.Grants))
}

func (s *Server) report(c *gin.Context) {
	snap, ok := s.latest(c)
	if !ok {
		return
	}
	reports := snap.Reports
	if reports == nil {
		reports = []aggregator.Report{}
	}
	c.JSON(http.StatusOK, gin.H{
		"collectedAt": snap.CollectedAt,
		"total":       len(snap.Grants),
		"failed":      snap.Failed(),
		"reports":     reports,
	})
}

// latest 读取最近一次快照；没有数据或读取失败时直接写出错误响应
func (s *Server) latest(c *gin.Context) (*aggregator.Snapshot, bool) {
	snap, err := s.store.Latest(c.Request.Context())
	if errors.Is(err, storage.ErrNoSnapshot) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No data found. Run /run first."})
		return nil, false
	}
	if err != nil {
		log.Errorf("load snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

// grantsOrEmpty 保证空结果序列化为 [] 而不是 null
func grantsOrEmpty(g []collector.Grant) []collector.Grant {
	if g == nil {
		return []collector.Grant{}
	}
	return g
}

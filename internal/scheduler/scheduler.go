package scheduler

import (
	"context"
	"fmt"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/storage"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Runner 执行一轮采集
type Runner interface {
	Run(ctx context.Context) (*aggregator.Snapshot, error)
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	store  storage.Store
}

// New 创建调度器；spec 为空时不注册定时任务，只能手动触发
func New(spec string, runner Runner, store storage.Store) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		store:  store,
	}

	if spec != "" {
		if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
			return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Cron 暴露底层 cron，方便注册额外的定时任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 执行一轮采集并写入存储，API、定时任务和命令行共用这一入口
func (s *Scheduler) RunOnce(ctx context.Context) (*aggregator.Snapshot, error) {
	snap, err := s.runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: collect: %w", err)
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("scheduler: save snapshot: %w", err)
	}
	log.Printf("snapshot saved to %s, grants=%d", s.store.Location(), len(snap.Grants))
	return snap, nil
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		log.Errorf("scheduled collect failed: %v", err)
	}
}

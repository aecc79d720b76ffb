package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/config"
)

// ErrNoSnapshot 尚未执行过任何一轮采集
var ErrNoSnapshot = errors.New("storage: no snapshot stored")

// Store 保存最近一轮采集结果，每次 Save 都整体替换旧数据
type Store interface {
	Save(ctx context.Context, snap *aggregator.Snapshot) error
	Latest(ctx context.Context) (*aggregator.Snapshot, error)
	// Location 描述数据存放位置（文件路径、redis key 等），用于 /run 的返回信息
	Location() string
	// Persistent 为 false 时数据只保存在进程内存中
	Persistent() bool
}

// Open 按 STORE_BACKEND 创建对应的存储
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return NewMemoryStore(), nil
	case "", "file":
		return NewFileStore(cfg.SnapshotPath), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisKey)
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StoreBackend)
	}
}

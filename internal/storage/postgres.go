package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/collector"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GrantRun 一轮采集；表中始终最多只有一行
type GrantRun struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CollectedAt time.Time `gorm:"index" json:"collectedAt"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	// 每个 URL 的采集报告，原样存为 JSON
	Reports datatypes.JSON `gorm:"type:jsonb" json:"reports"`

	CreatedAt time.Time `json:"createdAt"`
}

// GrantItem 快照中的单条记录，Position 保持采集顺序
type GrantItem struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	RunID       uint   `gorm:"index" json:"-"`
	Position    int    `gorm:"index" json:"-"`
	GrantID     string `gorm:"size:40;index" json:"-"`
	Title       string `gorm:"type:text" json:"title"`
	Link        string `gorm:"type:text" json:"link"`
	Description string `gorm:"type:text" json:"description"`
	Source      string `gorm:"size:64;index" json:"source"`
}

type PostgresStore struct {
	DB  *gorm.DB
	dsn string
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	if err := db.AutoMigrate(&GrantRun{}, &GrantItem{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &PostgresStore{DB: db, dsn: dsn}, nil
}

// Save 在一个事务中清空旧快照并写入新快照
func (s *PostgresStore) Save(ctx context.Context, snap *aggregator.Snapshot) error {
	run, items, err := toRows(snap)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&GrantItem{}).Error; err != nil {
			return fmt.Errorf("storage: clear items: %w", err)
		}
		if err := all.Delete(&GrantRun{}).Error; err != nil {
			return fmt.Errorf("storage: clear runs: %w", err)
		}
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("storage: create run: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].RunID = run.ID
		}
		if err := tx.CreateInBatches(items, 200).Error; err != nil {
			return fmt.Errorf("storage: create items: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Latest(ctx context.Context) (*aggregator.Snapshot, error) {
	db := s.DB.WithContext(ctx)

	var run GrantRun
	err := db.Order("id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load run: %w", err)
	}

	var items []GrantItem
	if err := db.Where("run_id = ?", run.ID).Order("position ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("storage: load items: %w", err)
	}
	return fromRows(run, items)
}

func (s *PostgresStore) Location() string {
	return "postgres:" + dbNameFromDSN(s.dsn) + "/grant_items"
}

func (s *PostgresStore) Persistent() bool {
	return true
}

func toRows(snap *aggregator.Snapshot) (*GrantRun, []GrantItem, error) {
	reports, err := json.Marshal(snap.Reports)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: encode reports: %w", err)
	}
	run := &GrantRun{
		CollectedAt: snap.CollectedAt,
		Total:       len(snap.Grants),
		Failed:      snap.Failed(),
		Reports:     datatypes.JSON(reports),
	}

	items := make([]GrantItem, 0, len(snap.Grants))
	for i, g := range snap.Grants {
		items = append(items, GrantItem{
			Position:    i,
			GrantID:     g.ID,
			Title:       g.Title,
			Link:        g.Link,
			Description: g.Description,
			Source:      g.Source,
		})
	}
	return run, items, nil
}

func fromRows(run GrantRun, items []GrantItem) (*aggregator.Snapshot, error) {
	snap := &aggregator.Snapshot{
		CollectedAt: run.CollectedAt,
		Grants:      make([]collector.Grant, 0, len(items)),
	}
	if len(run.Reports) > 0 {
		if err := json.Unmarshal(run.Reports, &snap.Reports); err != nil {
			return nil, fmt.Errorf("storage: decode reports: %w", err)
		}
	}
	for _, it := range items {
		snap.Grants = append(snap.Grants, collector.Grant{
			ID:          it.GrantID,
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Source:      it.Source,
		})
	}
	return snap, nil
}

// dbNameFromDSN 从 key=value 形式的 DSN 中取出 dbname，避免把密码带进返回信息
func dbNameFromDSN(dsn string) string {
	for _, part := range strings.Fields(dsn) {
		if v, ok := strings.CutPrefix(part, "dbname="); ok {
			return v
		}
	}
	return "postgres"
}

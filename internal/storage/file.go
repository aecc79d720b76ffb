package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/collector"
	log "github.com/sirupsen/logrus"
)

// FileStore 把记录写成单个 JSON 数组文件，每次整体覆盖；
// 采集报告写在同目录的 <path>.report.json 中。
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileReport struct {
	CollectedAt time.Time           `json:"collectedAt"`
	Reports     []aggregator.Report `json:"reports"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) reportPath() string {
	return f.path + ".report.json"
}

func (f *FileStore) Save(_ context.Context, snap *aggregator.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	grants := snap.Grants
	if grants == nil {
		grants = []collector.Grant{}
	}
	data, err := json.MarshalIndent(grants, "", "    ")
	if err != nil {
		return fmt.Errorf("storage: encode grants: %w", err)
	}
	if err := writeFileAtomic(f.path, data); err != nil {
		return err
	}

	// 记录已经落盘，报告写失败只告警；同时删掉旧报告，避免新记录配上上一轮的报告
	rep, err := json.MarshalIndent(fileReport{CollectedAt: snap.CollectedAt, Reports: snap.Reports}, "", "    ")
	if err == nil {
		err = writeFileAtomic(f.reportPath(), rep)
	}
	if err != nil {
		log.Warnf("failed to write report %s: %v", f.reportPath(), err)
		if rmErr := os.Remove(f.reportPath()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warnf("failed to remove stale report %s: %v", f.reportPath(), rmErr)
		}
	}
	return nil
}

func (f *FileStore) Latest(_ context.Context) (*aggregator.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}

	snap := &aggregator.Snapshot{}
	if err := json.Unmarshal(data, &snap.Grants); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}

	// 报告文件缺失或损坏不影响记录的读取
	if rep, err := os.ReadFile(f.reportPath()); err == nil {
		var fr fileReport
		if json.Unmarshal(rep, &fr) == nil {
			snap.CollectedAt = fr.CollectedAt
			snap.Reports = fr.Reports
		}
	}
	return snap, nil
}

func (f *FileStore) Location() string {
	return f.path
}

func (f *FileStore) Persistent() bool {
	return true
}

// writeFileAtomic 先写临时文件再 rename，避免读到写了一半的文件
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", path, err)
	}
	return nil
}

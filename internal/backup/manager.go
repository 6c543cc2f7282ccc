package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"inventory-management/internal/metrics"
	"inventory-management/internal/storage"
)

const (
	keyTimeLayout = "20060102T150405Z"
	keyBaseName   = "inventory-"
	keyExt        = ".db"
)

// Snapshotter writes a consistent copy of the database to dest.
type Snapshotter func(ctx context.Context, dest string) error

// Manager runs database backups on demand and on a schedule.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	RunOnce(ctx context.Context) (Result, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

type Config struct {
	Bucket    string
	KeyPrefix string
	// zero disables the scheduler; RunOnce still works
	Interval time.Duration
	Retain   int
	TempDir  string
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

// Result describes one completed backup.
type Result struct {
	Location string
	Key      string
	Size     int64
	Pruned   []string
}

type manager struct {
	cfg      Config
	snapshot Snapshotter
	storage  storage.Service

	// one slot: runs never overlap
	sem    chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(cfg Config, snapshot Snapshotter, store storage.Service) Manager {
	if cfg.Retain <= 0 {
		cfg.Retain = 7
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &manager{
		cfg:      cfg,
		snapshot: snapshot,
		storage:  store,
		sem:      make(chan struct{}, 1),
	}
}

func (m *manager) Start(ctx context.Context) error {
	if m.cfg.Bucket == "" {
		return errors.New("backup bucket is required")
	}
	if m.cfg.Interval <= 0 {
		m.cfg.Logger.Info("backup scheduler disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunOnce(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					m.cfg.Logger.WithError(err).Error("scheduled backup failed")
				}
			}
		}
	}()

	m.cfg.Logger.Infof("backup scheduler started, interval %s", m.cfg.Interval)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("backup scheduler stopped")
}

func (m *manager) RunOnce(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case m.sem <- struct{}{}:
	}
	defer func() { <-m.sem }()

	now := m.cfg.Now().UTC()
	res, err := m.run(ctx, now)
	metrics.RecordBackup(err, now)
	return res, err
}

func (m *manager) run(ctx context.Context, now time.Time) (Result, error) {
	if m.cfg.Bucket == "" {
		return Result{}, errors.New("backup bucket is required")
	}

	key := m.objectKey(now)
	logger := m.cfg.Logger.WithField("key", key)

	workDir, err := os.MkdirTemp(m.cfg.TempDir, "inventory-backup-")
	if err != nil {
		return Result{}, fmt.Errorf("create backup work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warnf("cleanup backup work dir: %v", err)
		}
	}()

	localPath := filepath.Join(workDir, filepath.Base(key))
	if err := m.snapshot(ctx, localPath); err != nil {
		return Result{}, fmt.Errorf("snapshot database: %w", err)
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat snapshot: %w", err)
	}

	logger.Infof("backup upload started (%s)", formatBytes(info.Size()))
	location, err := m.storage.UploadFile(ctx, localPath, storage.UploadOptions{
		Bucket:           m.cfg.Bucket,
		Key:              key,
		ProgressCallback: newUploadProgressLogger(logger),
	})
	if err != nil {
		return Result{}, fmt.Errorf("upload backup: %w", err)
	}

	res := Result{Location: location, Key: key, Size: info.Size()}

	pruned, err := m.prune(ctx)
	res.Pruned = pruned
	if err != nil {
		// the new backup is safely stored; a failed prune is retried next run
		logger.WithError(err).Warn("prune old backups")
	}

	logger.Infof("backup completed: %s", location)
	return res, nil
}

// List returns stored backups, oldest first.
func (m *manager) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	objects, err := m.storage.ListObjects(ctx, m.cfg.Bucket, m.listPrefix())
	if err != nil {
		return nil, err
	}
	backups := objects[:0]
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, keyExt) {
			backups = append(backups, obj)
		}
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Key < backups[j].Key })
	return backups, nil
}

func (m *manager) prune(ctx context.Context) ([]string, error) {
	backups, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) <= m.cfg.Retain {
		return nil, nil
	}

	stale := make([]string, 0, len(backups)-m.cfg.Retain)
	for _, obj := range backups[:len(backups)-m.cfg.Retain] {
		stale = append(stale, obj.Key)
	}
	if err := m.storage.DeleteObjects(ctx, m.cfg.Bucket, stale); err != nil {
		return nil, err
	}
	m.cfg.Logger.Infof("pruned %d old backups", len(stale))
	return stale, nil
}

func (m *manager) objectKey(now time.Time) string {
	name := keyBaseName + now.Format(keyTimeLayout) + keyExt
	if m.cfg.KeyPrefix == "" {
		return name
	}
	return m.cfg.KeyPrefix + "/" + name
}

func (m *manager) listPrefix() string {
	if m.cfg.KeyPrefix == "" {
		return keyBaseName
	}
	return m.cfg.KeyPrefix + "/" + keyBaseName
}

func newUploadProgressLogger(logger logrus.FieldLogger) func(done, total int64) {
	var lastLog time.Time
	return func(done, total int64) {
		now := time.Now()
		if now.Sub(lastLog) < 500*time.Millisecond && done != total {
			return
		}
		lastLog = now
		if total == 0 {
			logger.Debugf("upload progress: %s uploaded", formatBytes(done))
			return
		}
		percent := float64(done) / float64(total) * 100
		logger.Debugf("upload progress: %.1f%% (%s/%s)", percent, formatBytes(done), formatBytes(total))
	}
}

// formatBytes renders n with binary units, e.g. 1536 -> "1.5KiB".
func formatBytes(n int64) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + "B"
	}
	size := float64(n) / 1024
	for _, unit := range []string{"KiB", "MiB", "GiB", "TiB", "PiB"} {
		if size < 1024 {
			return strconv.FormatFloat(size, 'f', 1, 64) + unit
		}
		size /= 1024
	}
	return strconv.FormatFloat(size, 'f', 1, 64) + "EiB"
}

var _ Manager = (*manager)(nil)

package workers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/metrics"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/utils"
)

// ProfileExporter dumps profiles as JSON. services.ProfileService implements it.
type ProfileExporter interface {
	ExportJSON(ctx context.Context, w io.Writer, f database.ProfileFilter) (int, error)
}

type BackupJob struct {
	IncludeMedia bool
	Automated    bool
}

func (j BackupJob) key() string {
	if j.IncludeMedia {
		return "full"
	}
	return "data"
}

// BackupWorker builds backup archives one at a time. Manual and scheduled
// requests share the queue; a request equal to one already pending is dropped.
type BackupWorker struct {
	JobQueue chan BackupJob
	Config   config.Config
	Exporter ProfileExporter
	Backups  repository.BackupRepository
	Events   realtime.Publisher
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex

	log *slog.Logger
}

func NewBackupWorker(cfg config.Config, exporter ProfileExporter, backups repository.BackupRepository, events realtime.Publisher) *BackupWorker {
	queueSize := cfg.BackupQueueSize
	if queueSize <= 0 {
		queueSize = 8
	}
	if events == nil {
		events = realtime.Discard{}
	}
	return &BackupWorker{
		JobQueue: make(chan BackupJob, queueSize),
		Config:   cfg,
		Exporter: exporter,
		Backups:  backups,
		Events:   events,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
		log:      slog.Default().With("component", "backup"),
	}
}

// Start launches the worker and, when interval is positive, the schedule
// that queues a data-only backup every interval.
func (bw *BackupWorker) Start(interval time.Duration) {
	bw.Wg.Add(1)
	go bw.worker()

	if interval > 0 {
		bw.Wg.Add(1)
		go bw.schedule(interval)
	}
	bw.log.Info("backup worker started", "queue_size", cap(bw.JobQueue), "interval", interval)
}

func (bw *BackupWorker) worker() {
	defer bw.Wg.Done()
	for {
		select {
		case job := <-bw.JobQueue:
			if _, err := bw.Run(context.Background(), job); err != nil {
				bw.log.Error("backup failed", "media", job.IncludeMedia, "automated", job.Automated, "error", err)
			}
			bw.Mutex.Lock()
			delete(bw.Pending, job.key())
			bw.Mutex.Unlock()

		case <-bw.StopChan:
			bw.log.Info("backup worker stopping: stop signal received")
			return
		}
	}
}

func (bw *BackupWorker) schedule(interval time.Duration) {
	defer bw.Wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			bw.QueueJob(BackupJob{Automated: true})
		case <-bw.StopChan:
			return
		}
	}
}

// QueueJob enqueues job without blocking. It returns false when an equal
// job is already pending or the queue is full.
func (bw *BackupWorker) QueueJob(job BackupJob) bool {
	key := job.key()
	bw.Mutex.Lock()
	if bw.Pending[key] {
		bw.Mutex.Unlock()
		bw.log.Info("backup already pending, skipping queue", "kind", key)
		return false
	}
	bw.Pending[key] = true
	bw.Mutex.Unlock()

	select {
	case bw.JobQueue <- job:
		bw.log.Info("queued backup", "kind", key, "automated", job.Automated)
		return true
	default:
		bw.log.Warn("backup queue full, dropping job", "kind", key)
		bw.Mutex.Lock()
		delete(bw.Pending, key)
		bw.Mutex.Unlock()
		return false
	}
}

// Run builds one archive synchronously and records it. A failed backup is
// recorded too, with its error.
func (bw *BackupWorker) Run(ctx context.Context, job BackupJob) (*models.Backup, error) {
	started := time.Now()
	var profileCount int
	src := utils.BackupSource{
		WriteData: func(w io.Writer) error {
			n, err := bw.Exporter.ExportJSON(ctx, w, database.ProfileFilter{})
			profileCount = n
			return err
		},
	}
	if job.IncludeMedia {
		src.MediaRoot = bw.Config.MediaRoot
		src.SkipDirs = []string{bw.Config.RecycleBin, bw.Config.BackupDir}
	}

	filename, size, err := utils.CreateBackupZip(src, bw.Config.BackupDir)
	record := &models.Backup{
		Filename:      filename,
		SizeBytes:     size,
		ProfileCount:  profileCount,
		Automated:     job.Automated,
		IncludesMedia: job.IncludeMedia,
		CreatedAt:     started.Unix(),
	}
	metrics.Backup(err == nil)

	if err != nil {
		msg := err.Error()
		record.Error = &msg
		record.Filename = fmt.Sprintf("failed_%d", started.UnixNano())
		bw.save(record)
		bw.Events.Broadcast(realtime.Event{Type: realtime.EventBackupFailed, Error: msg})
		return record, fmt.Errorf("failed to create backup: %w", err)
	}

	bw.save(record)
	bw.log.Info("backup completed", "file", filename, "size", size, "profiles", profileCount, "duration", time.Since(started))
	bw.Events.Broadcast(realtime.Event{
		Type:  realtime.EventBackupCompleted,
		Extra: map[string]interface{}{"filename": filename, "size": size, "profiles": profileCount},
	})
	return record, nil
}

func (bw *BackupWorker) save(record *models.Backup) {
	if bw.Backups == nil {
		return
	}
	if err := bw.Backups.Create(record); err != nil {
		bw.log.Error("failed to record backup", "file", record.Filename, "error", err)
	}
}

// Stop signals the worker and the schedule and waits for them. A backup in
// progress finishes first.
func (bw *BackupWorker) Stop() {
	bw.log.Info("stopping backup worker...")
	close(bw.StopChan)
	bw.Wg.Wait()
	bw.log.Info("backup worker stopped")
}

// ErrBackupNotFound is returned for unknown or unsafe archive names.
var ErrBackupNotFound = errors.New("backup not found")

// Lookup returns the record of a completed archive.
func (bw *BackupWorker) Lookup(filename string) (*models.Backup, error) {
	if !utils.IsBackupFilename(filename) || bw.Backups == nil {
		return nil, ErrBackupNotFound
	}
	record, err := bw.Backups.GetByFilename(filename)
	if err != nil || record == nil || record.Error != nil {
		return nil, ErrBackupNotFound
	}
	return record, nil
}

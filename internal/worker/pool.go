package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"mediacatalog-backend/internal/ingest"
	"mediacatalog-backend/internal/models"
	"mediacatalog-backend/internal/repository"
	"mediacatalog-backend/internal/websocket"
)

const (
	importQueueKey = "queue:catalog-import"

	// runLockKey serializes import runs across workers and processes.
	// The staging table is shared state with no run partitioning, so two
	// concurrent runs would truncate each other mid-stream.
	runLockKey = "lock:import-run"
	runLockTTL = 30 * time.Minute
)

type Pool struct {
	redis       *redis.Client
	importer    *ingest.Importer
	jobRepo     *repository.ImportJobRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, importer *ingest.Importer, jobRepo *repository.ImportJobRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		importer:    importer,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d import worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Import worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, importQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job models.ImportJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Import worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Per-job lock so a redelivered job is not run twice.
		jobLockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, jobLockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		// One run at a time, process-wide. If another run owns the
		// staging table, requeue and back off.
		runLocked, err := p.redis.SetNX(ctx, runLockKey, job.ID.String(), runLockTTL).Result()
		if err != nil || !runLocked {
			p.redis.Del(ctx, jobLockKey)
			p.redis.RPush(ctx, importQueueKey, result[1])
			time.Sleep(2 * time.Second)
			continue
		}

		log.Printf("Import worker %d: processing job %s", id, job.ID)
		p.runJob(ctx, &job)

		p.redis.Del(ctx, runLockKey)
	}
}

func (p *Pool) runJob(ctx context.Context, job *models.ImportJob) {
	p.jobRepo.MarkProcessing(ctx, job.ID)
	p.publish(ctx, models.ImportStatusEvent{JobID: job.ID, Status: "processing"})

	summary, err := p.runImport(ctx, job)
	if err != nil {
		code := string(ingest.KindStoreFailure)
		var ingErr *ingest.Error
		if errors.As(err, &ingErr) {
			code = string(ingErr.Kind)
		}
		p.jobRepo.MarkFailed(ctx, job.ID, code, err.Error())
		p.publish(ctx, models.ImportStatusEvent{
			JobID:        job.ID,
			Status:       "failed",
			ErrorCode:    code,
			ErrorMessage: err.Error(),
		})
		log.Printf("Import job %s failed: %v", job.ID, err)
		return
	}

	p.jobRepo.MarkCompleted(ctx, job.ID, summary.RowsProcessed, summary.RowsSkipped)
	p.publish(ctx, models.ImportStatusEvent{
		JobID:         job.ID,
		Status:        "completed",
		RowsProcessed: summary.RowsProcessed,
		RowsSkipped:   summary.RowsSkipped,
	})
	os.Remove(job.FilePath)
	log.Printf("Import job %s completed: %d rows", job.ID, summary.RowsProcessed)
}

func (p *Pool) runImport(ctx context.Context, job *models.ImportJob) (ingest.RunSummary, error) {
	f, err := os.Open(job.FilePath)
	if err != nil {
		return ingest.RunSummary{}, ingest.NewError(ingest.KindStoreFailure, fmt.Errorf("opening upload: %w", err))
	}

	src, err := ingest.NewCSVSource(f)
	if err != nil {
		f.Close()
		return ingest.RunSummary{}, err
	}

	// ImportBatch closes the source, which closes the file.
	return p.importer.ImportBatch(ctx, src)
}

func (p *Pool) publish(ctx context.Context, event models.ImportStatusEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	p.redis.Publish(ctx, websocket.ImportUpdatesChannel, data)
}

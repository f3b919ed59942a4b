package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AdPulseHQ/AdPulse/internal/pkg/cache"
)

const (
	// Redis key prefixes
	JobKeyPrefix = "job:"
	JobQueueKey  = "job_queue"

	// Jobs expire after 24 hours
	JobTTL = 24 * time.Hour

	pollInterval = 2 * time.Second
)

// Queue manages background jobs using Redis
type Queue struct {
	client  *redis.Client
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a new job queue
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:  cache.GetClient(),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

// EnqueueCampaignSync creates and enqueues a campaign sync job and returns
// the job id.
func (q *Queue) EnqueueCampaignSync(integrationID, userID uint, platform string) (string, error) {
	payload := CampaignSyncJobPayload{
		IntegrationID: integrationID,
		UserID:        userID,
		Platform:      platform,
	}
	return q.enqueue(JobTypeCampaignSync, payload.ToMap())
}

func (q *Queue) enqueue(jobType JobType, payload map[string]interface{}) (string, error) {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := q.saveJob(job); err != nil {
		return "", err
	}
	if err := q.client.LPush(context.Background(), JobQueueKey, job.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	log.Infof("[JobQueue] Enqueued %s job %s", job.Type, job.ID)
	return job.ID, nil
}

// GetJob loads a job by id.
func (q *Queue) GetJob(id string) (*Job, error) {
	data, err := cache.Get(JobKeyPrefix + id)
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (q *Queue) saveJob(job *Job) error {
	job.UpdatedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return cache.Set(JobKeyPrefix+job.ID, data, JobTTL)
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[JobQueue] Worker %d started", id)
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		jobID, err := q.client.BRPop(ctx, pollInterval, JobQueueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] Worker %d pop error: %v", id, err)
				time.Sleep(pollInterval)
			}
			continue
		}
		if len(jobID) < 2 {
			continue
		}
		q.processJob(jobID[1])
	}
}

func (q *Queue) processJob(jobID string) {
	job, err := q.GetJob(jobID)
	if err != nil {
		log.Errorf("[JobQueue] Job %s not loadable: %v", jobID, err)
		return
	}

	job.Status = JobStatusProcessing
	if err := q.saveJob(job); err != nil {
		log.Errorf("[JobQueue] Job %s status update failed: %v", jobID, err)
	}

	var procErr error
	switch job.Type {
	case JobTypeCampaignSync:
		procErr = processCampaignSync(job)
	default:
		procErr = fmt.Errorf("unknown job type %s", job.Type)
	}

	now := time.Now()
	if procErr != nil {
		job.Status = JobStatusFailed
		job.ErrorMsg = procErr.Error()
		log.Errorf("[JobQueue] Job %s failed: %v", jobID, procErr)
	} else {
		job.Status = JobStatusCompleted
		job.CompletedAt = &now
	}
	if err := q.saveJob(job); err != nil {
		log.Errorf("[JobQueue] Job %s final update failed: %v", jobID, err)
	}
}

package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeCampaignSync JobType = "campaign_sync"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
}

// CampaignSyncJobPayload contains the payload for campaign sync jobs
type CampaignSyncJobPayload struct {
	IntegrationID uint   `json:"integration_id"`
	UserID        uint   `json:"user_id"`
	Platform      string `json:"platform"`
}

// ToMap converts the payload to a map for storage
func (p CampaignSyncJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"integration_id": p.IntegrationID,
		"user_id":        p.UserID,
		"platform":       p.Platform,
	}
}

// CampaignSyncJobPayloadFromMap creates a payload from a stored map
func CampaignSyncJobPayloadFromMap(data map[string]interface{}) (*CampaignSyncJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload CampaignSyncJobPayload
	if err := json.Unmarshal(jsonData, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

package jobqueue

import "testing"

func TestProcessCampaignSync(t *testing.T) {
	job := &Job{
		ID:   "j-1",
		Type: JobTypeCampaignSync,
		Payload: CampaignSyncJobPayload{
			IntegrationID: 7,
			UserID:        42,
			Platform:      "pinterest_ads",
		}.ToMap(),
	}
	if err := processCampaignSync(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProcessCampaignSyncRejectsMissingIntegration(t *testing.T) {
	job := &Job{
		ID:      "j-2",
		Type:    JobTypeCampaignSync,
		Payload: map[string]interface{}{"platform": "google_ads"},
	}
	if err := processCampaignSync(job); err == nil {
		t.Fatalf("payload without integration id must fail")
	}
}

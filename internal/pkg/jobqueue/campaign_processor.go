package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// processCampaignSync handles a campaign sync job. Syncing against the live
// platform APIs is not implemented yet; the request is recorded so the
// pipeline is in place when it is.
func processCampaignSync(job *Job) error {
	payload, err := CampaignSyncJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid campaign sync payload: %w", err)
	}
	if payload.IntegrationID == 0 {
		return fmt.Errorf("campaign sync payload missing integration id")
	}

	log.Infof("[JobQueue] Campaign sync requested for integration %d (%s, user %d)",
		payload.IntegrationID, payload.Platform, payload.UserID)
	return nil
}

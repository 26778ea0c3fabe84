package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// RefreshScheduler keeps cached aggregates warm
type RefreshScheduler interface {
	Start()
	Stop()
	ForceUpdate(ctx context.Context) models.ForceUpdateResult
	Status() models.SchedulerStatus
}

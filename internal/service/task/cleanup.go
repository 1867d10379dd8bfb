package task

import (
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

// CleanupTask periodic housekeeping: expired rate-limit counters and stale
// open slots.
type CleanupTask struct {
	rateLimitService *db.RateLimitService
	slotService      *db.SlotService
	xl               *xlog.Logger
}

func NewCleanupTask(conf *utils.Config) (*CleanupTask, error) {
	xl := xlog.New("polaris-cleanup-task")
	rateLimitService, err := db.NewRateLimitService(*conf.Mongo, xl)
	if err != nil {
		return nil, err
	}
	slotService, err := db.NewSlotService(*conf.Mongo, xl)
	if err != nil {
		return nil, err
	}
	return &CleanupTask{
		rateLimitService: rateLimitService,
		slotService:      slotService,
		xl:               xl,
	}, nil
}

// PurgeRateLimitCounters drops counters whose window has ended.
func (t *CleanupTask) PurgeRateLimitCounters() {
	removed, err := t.rateLimitService.PurgeExpired(t.xl, time.Now())
	if err != nil {
		t.xl.Errorf("rate limit purge failed, error %v", err)
		return
	}
	if removed > 0 {
		t.xl.Infof("purged %d expired rate limit counters", removed)
	}
}

// SweepStaleSlots removes open slots whose start passed more than a week ago.
// Booked slots stay as the record of held interviews.
func (t *CleanupTask) SweepStaleSlots() {
	slots, err := t.slotService.ListSlots(t.xl)
	if err != nil {
		t.xl.Errorf("stale slot sweep failed, error %v", err)
		return
	}
	cutoff := time.Now().AddDate(0, 0, -7)
	removed := 0
	for _, slot := range slots {
		if slot.Booked || slot.StartTime.After(cutoff) {
			continue
		}
		if err := t.slotService.DeleteSlot(t.xl, slot.ID); err != nil {
			t.xl.Errorf("failed to sweep slot %s, error %v", slot.ID, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		t.xl.Infof("swept %d stale open slots", removed)
	}
}

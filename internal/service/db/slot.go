package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db/dao"
)

// SlotService interview slot collection. The claim is the single
// concurrency-critical operation of the booking subsystem and is pushed down
// to one conditional findAndModify.
type SlotService struct {
	mongoClient *mgo.Session
	slotColl    *mgo.Collection
	xl          *xlog.Logger
}

func NewSlotService(conf utils.MongoConfig, xl *xlog.Logger) (*SlotService, error) {
	if xl == nil {
		xl = xlog.New("polaris-slot-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	slotColl := mongoClient.DB(conf.Database).C(dao.CollectionInterviewSlot)
	return &SlotService{
		mongoClient: mongoClient,
		slotColl:    slotColl,
		xl:          xl,
	}, nil
}

// SlotWindow one generated time window.
type SlotWindow struct {
	Start time.Time
	End   time.Time
}

// GenerateSlots produces consecutive non-overlapping windows covering
// day start..end. A trailing remainder shorter than one full duration is
// dropped, never padded into a short slot.
func GenerateSlots(day, start, end string, duration time.Duration, loc *time.Location) ([]SlotWindow, error) {
	if loc == nil {
		loc = time.UTC
	}
	dayStart, err := time.ParseInLocation("2006-01-02 15:04", day+" "+start, loc)
	if err != nil {
		return nil, err
	}
	dayEnd, err := time.ParseInLocation("2006-01-02 15:04", day+" "+end, loc)
	if err != nil {
		return nil, err
	}
	windows := make([]SlotWindow, 0)
	for cur := dayStart; !cur.Add(duration).After(dayEnd); cur = cur.Add(duration) {
		windows = append(windows, SlotWindow{Start: cur, End: cur.Add(duration)})
	}
	return windows, nil
}

// CreateSlot inserts one open slot.
func (c *SlotService) CreateSlot(xl *xlog.Logger, start, end time.Time, createdBy string) (*model.InterviewSlotDo, error) {
	if xl == nil {
		xl = c.xl
	}
	slot := &model.InterviewSlotDo{
		ID:         utils.GenerateID(),
		StartTime:  start,
		EndTime:    end,
		Booked:     false,
		CreatedBy:  createdBy,
		CreateTime: time.Now(),
	}
	err := c.slotColl.Insert(slot)
	if err != nil {
		xl.Errorf("failed to insert slot, error %v", err)
		return nil, err
	}
	return slot, nil
}

// CreateSlots inserts one open slot per generated window.
func (c *SlotService) CreateSlots(xl *xlog.Logger, windows []SlotWindow, createdBy string) ([]model.InterviewSlotDo, error) {
	if xl == nil {
		xl = c.xl
	}
	slots := make([]model.InterviewSlotDo, 0, len(windows))
	for _, w := range windows {
		slot, err := c.CreateSlot(xl, w.Start, w.End, createdBy)
		if err != nil {
			return slots, err
		}
		slots = append(slots, *slot)
	}
	return slots, nil
}

// ListSlots returns all slots sorted by start time.
func (c *SlotService) ListSlots(xl *xlog.Logger) ([]model.InterviewSlotDo, error) {
	if xl == nil {
		xl = c.xl
	}
	slots := []model.InterviewSlotDo{}
	err := c.slotColl.Find(nil).Sort("startTime").All(&slots)
	if err != nil {
		xl.Errorf("failed to list slots, error %v", err)
		return nil, err
	}
	return slots, nil
}

func (c *SlotService) GetSlotByID(xl *xlog.Logger, slotID string) (*model.InterviewSlotDo, error) {
	if xl == nil {
		xl = c.xl
	}
	slot := model.InterviewSlotDo{}
	err := c.slotColl.FindId(slotID).One(&slot)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorSlotNotFound, "no such slot")
		}
		xl.Errorf("failed to get slot %s, error %v", slotID, err)
		return nil, err
	}
	return &slot, nil
}

// ClaimSlot atomically marks an open future slot as booked by the given
// application. The unbooked+future condition lives in the filter of a single
// findAndModify, so two concurrent claims can never both succeed.
func (c *SlotService) ClaimSlot(xl *xlog.Logger, slotID, applicationID string, now time.Time) (*model.InterviewSlotDo, error) {
	if xl == nil {
		xl = c.xl
	}
	change := mgo.Change{
		Update: bson.M{"$set": bson.M{
			"booked":        true,
			"applicationId": applicationID,
		}},
		ReturnNew: true,
	}
	slot := model.InterviewSlotDo{}
	_, err := c.slotColl.Find(bson.M{
		"_id":       slotID,
		"booked":    false,
		"startTime": bson.M{"$gt": now},
	}).Apply(change, &slot)
	if err != nil {
		if err == mgo.ErrNotFound {
			// Already booked, deleted, or now in the past.
			xl.Infof("slot %s unavailable for application %s", slotID, applicationID)
			return nil, errors2.New(errors2.ServerErrorSlotUnavailable, "slot unavailable")
		}
		xl.Errorf("failed to claim slot %s, error %v", slotID, err)
		return nil, err
	}
	xl.Infof("application %s claimed slot %s", applicationID, slotID)
	return &slot, nil
}

// ReleaseSlot compensates a claim: unsets the booked flag and the
// application reference. The application filter keeps a release from undoing
// somebody else's claim.
func (c *SlotService) ReleaseSlot(xl *xlog.Logger, slotID, applicationID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.slotColl.Update(
		bson.M{"_id": slotID, "applicationId": applicationID},
		bson.M{"$set": bson.M{"booked": false}, "$unset": bson.M{"applicationId": ""}},
	)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("slot %s not held by application %s, nothing to release", slotID, applicationID)
			return nil
		}
		xl.Errorf("failed to release slot %s, error %v", slotID, err)
		return err
	}
	xl.Infof("released slot %s previously claimed by %s", slotID, applicationID)
	return nil
}

// DeleteSlot removes one slot, but only while it is unbooked.
func (c *SlotService) DeleteSlot(xl *xlog.Logger, slotID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.slotColl.Remove(bson.M{"_id": slotID, "booked": false})
	if err != nil {
		if err == mgo.ErrNotFound {
			// Either no such slot or it is booked; look again to tell the two apart.
			if _, getErr := c.GetSlotByID(xl, slotID); getErr != nil {
				return getErr
			}
			return errors2.New(errors2.ServerErrorSlotBooked, "slot is booked")
		}
		xl.Errorf("failed to delete slot %s, error %v", slotID, err)
		return err
	}
	return nil
}

// DeleteUnbookedSlots removes every open slot, returning how many went away.
func (c *SlotService) DeleteUnbookedSlots(xl *xlog.Logger) (int, error) {
	if xl == nil {
		xl = c.xl
	}
	info, err := c.slotColl.RemoveAll(bson.M{"booked": false})
	if err != nil {
		xl.Errorf("failed to delete unbooked slots, error %v", err)
		return 0, err
	}
	return info.Removed, nil
}

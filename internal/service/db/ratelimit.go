package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db/dao"
)

// RateLimitRule fixed-window budget for one action.
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitResult outcome of one check. ResetAt is when the current window
// ends; RetryAfter is meaningful only when Allowed is false.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimitService fixed-window counters persisted per identifier+action, so
// limits survive restarts and hold across replicas sharing the database.
type RateLimitService struct {
	mongoClient *mgo.Session
	counterColl *mgo.Collection
	xl          *xlog.Logger
}

func NewRateLimitService(conf utils.MongoConfig, xl *xlog.Logger) (*RateLimitService, error) {
	if xl == nil {
		xl = xlog.New("polaris-ratelimit-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	counterColl := mongoClient.DB(conf.Database).C(dao.CollectionRateLimitCounter)
	return &RateLimitService{
		mongoClient: mongoClient,
		counterColl: counterColl,
		xl:          xl,
	}, nil
}

// applyWindow advances one counter by one request at time now. A nil counter
// means no window on record. Returns the updated counter to persist and the
// decision for the caller.
func applyWindow(counter *model.RateLimitCounterDo, id string, rule RateLimitRule, now time.Time) (*model.RateLimitCounterDo, RateLimitResult) {
	if counter == nil || now.Sub(counter.WindowStart) >= rule.Window {
		// Fresh window, this request is the first of it.
		fresh := &model.RateLimitCounterDo{
			ID:          id,
			Count:       1,
			WindowStart: now,
			ExpireAt:    now.Add(rule.Window),
		}
		return fresh, RateLimitResult{Allowed: true, Remaining: rule.MaxRequests - 1, ResetAt: fresh.ExpireAt}
	}
	resetAt := counter.WindowStart.Add(rule.Window)
	if counter.Count >= rule.MaxRequests {
		// Floored at one second so clients never get a zero retry hint.
		retryAfter := resetAt.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return counter, RateLimitResult{Allowed: false, ResetAt: resetAt, RetryAfter: retryAfter}
	}
	counter.Count++
	counter.ExpireAt = resetAt
	return counter, RateLimitResult{Allowed: true, Remaining: rule.MaxRequests - counter.Count, ResetAt: resetAt}
}

// Check counts one request for identifier+action against the rule. Store
// errors fail open: an unreachable database throttles nobody.
func (c *RateLimitService) Check(xl *xlog.Logger, identifier, action string, rule RateLimitRule) RateLimitResult {
	if xl == nil {
		xl = c.xl
	}
	id := identifier + ":" + action
	now := time.Now()

	counter := &model.RateLimitCounterDo{}
	err := c.counterColl.FindId(id).One(counter)
	if err == mgo.ErrNotFound {
		counter = nil
	} else if err != nil {
		xl.Errorf("rate limit lookup failed for %s, error %v", id, err)
		return RateLimitResult{Allowed: true, Remaining: rule.MaxRequests, ResetAt: now.Add(rule.Window)}
	}

	updated, result := applyWindow(counter, id, rule, now)
	if result.Allowed {
		if _, err := c.counterColl.UpsertId(id, updated); err != nil {
			xl.Errorf("rate limit upsert failed for %s, error %v", id, err)
		}
	}
	return result
}

// PurgeExpired drops counters whose window ended before now.
func (c *RateLimitService) PurgeExpired(xl *xlog.Logger, now time.Time) (int, error) {
	if xl == nil {
		xl = c.xl
	}
	info, err := c.counterColl.RemoveAll(bson.M{"expireAt": bson.M{"$lt": now}})
	if err != nil {
		xl.Errorf("failed to purge expired rate limit counters, error %v", err)
		return 0, err
	}
	return info.Removed, nil
}

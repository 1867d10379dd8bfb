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

// NewsletterService subscribers plus the public issue archive.
type NewsletterService struct {
	mongoClient    *mgo.Session
	subscriberColl *mgo.Collection
	issueColl      *mgo.Collection
	xl             *xlog.Logger
}

func NewNewsletterService(conf utils.MongoConfig, xl *xlog.Logger) (*NewsletterService, error) {
	if xl == nil {
		xl = xlog.New("polaris-newsletter-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	database := mongoClient.DB(conf.Database)
	return &NewsletterService{
		mongoClient:    mongoClient,
		subscriberColl: database.C(dao.CollectionSubscriber),
		issueColl:      database.C(dao.CollectionNewsletterIssue),
		xl:             xl,
	}, nil
}

// Subscribe adds an email to the list. Subscribing twice is reported so the
// handler can answer idempotently.
func (c *NewsletterService) Subscribe(xl *xlog.Logger, email string) (*model.SubscriberDo, error) {
	if xl == nil {
		xl = c.xl
	}
	count, err := c.subscriberColl.Find(bson.M{"email": email}).Count()
	if err != nil {
		xl.Errorf("failed to look up subscriber, error %v", err)
		return nil, err
	}
	if count > 0 {
		return nil, errors2.New(errors2.ServerErrorDuplicateSubscriber, "already subscribed")
	}
	subscriber := &model.SubscriberDo{
		ID:            utils.GenerateID(),
		Email:         email,
		SubscribeTime: time.Now(),
	}
	err = c.subscriberColl.Insert(subscriber)
	if err != nil {
		xl.Errorf("failed to insert subscriber, error %v", err)
		return nil, err
	}
	return subscriber, nil
}

// Unsubscribe removes an email; unknown emails unsubscribe silently.
func (c *NewsletterService) Unsubscribe(xl *xlog.Logger, email string) error {
	if xl == nil {
		xl = c.xl
	}
	_, err := c.subscriberColl.RemoveAll(bson.M{"email": email})
	if err != nil {
		xl.Errorf("failed to remove subscriber, error %v", err)
		return err
	}
	return nil
}

func (c *NewsletterService) ListSubscribers(xl *xlog.Logger) ([]model.SubscriberDo, error) {
	if xl == nil {
		xl = c.xl
	}
	subscribers := []model.SubscriberDo{}
	err := c.subscriberColl.Find(nil).Sort("subscribeTime").All(&subscribers)
	if err != nil {
		xl.Errorf("failed to list subscribers, error %v", err)
		return nil, err
	}
	return subscribers, nil
}

// CreateIssue archives a newsletter issue.
func (c *NewsletterService) CreateIssue(xl *xlog.Logger, title, body, createdBy string) (*model.NewsletterIssueDo, error) {
	if xl == nil {
		xl = c.xl
	}
	issue := &model.NewsletterIssueDo{
		ID:          utils.GenerateID(),
		Title:       title,
		Body:        body,
		PublishTime: time.Now(),
		CreatedBy:   createdBy,
	}
	err := c.issueColl.Insert(issue)
	if err != nil {
		xl.Errorf("failed to insert newsletter issue, error %v", err)
		return nil, err
	}
	return issue, nil
}

// ListIssues pages archived issues, newest first.
func (c *NewsletterService) ListIssues(xl *xlog.Logger, pageNum, pageSize int) ([]model.NewsletterIssueDo, int, error) {
	if xl == nil {
		xl = c.xl
	}
	total, err := c.issueColl.Find(nil).Count()
	if err != nil {
		xl.Errorf("failed to count newsletter issues, error %v", err)
		return nil, 0, err
	}
	issues := []model.NewsletterIssueDo{}
	skip := (pageNum - 1) * pageSize
	err = c.issueColl.Find(nil).Sort("-publishTime").Skip(skip).Limit(pageSize).All(&issues)
	if err != nil {
		xl.Errorf("failed to list newsletter issues, error %v", err)
		return nil, 0, err
	}
	return issues, total, nil
}

func (c *NewsletterService) GetIssueByID(xl *xlog.Logger, issueID string) (*model.NewsletterIssueDo, error) {
	if xl == nil {
		xl = c.xl
	}
	issue := model.NewsletterIssueDo{}
	err := c.issueColl.FindId(issueID).One(&issue)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorContentNotFound, "no such issue")
		}
		xl.Errorf("failed to get newsletter issue %s, error %v", issueID, err)
		return nil, err
	}
	return &issue, nil
}

func (c *NewsletterService) DeleteIssue(xl *xlog.Logger, issueID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.issueColl.RemoveId(issueID)
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorContentNotFound, "no such issue")
		}
		xl.Errorf("failed to delete newsletter issue %s, error %v", issueID, err)
		return err
	}
	return nil
}

package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/form"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db/dao"
)

// ContactService messages from the public contact form.
type ContactService struct {
	mongoClient *mgo.Session
	messageColl *mgo.Collection
	xl          *xlog.Logger
}

func NewContactService(conf utils.MongoConfig, xl *xlog.Logger) (*ContactService, error) {
	if xl == nil {
		xl = xlog.New("polaris-contact-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	messageColl := mongoClient.DB(conf.Database).C(dao.CollectionContactMessage)
	return &ContactService{
		mongoClient: mongoClient,
		messageColl: messageColl,
		xl:          xl,
	}, nil
}

func (c *ContactService) CreateMessage(xl *xlog.Logger, contactForm *form.ContactForm) (*model.ContactMessageDo, error) {
	if xl == nil {
		xl = c.xl
	}
	message := &model.ContactMessageDo{
		ID:         utils.GenerateID(),
		Name:       contactForm.Name,
		Email:      contactForm.Email,
		Subject:    contactForm.Subject,
		Body:       contactForm.Body,
		Read:       false,
		CreateTime: time.Now(),
	}
	err := c.messageColl.Insert(message)
	if err != nil {
		xl.Errorf("failed to insert contact message, error %v", err)
		return nil, err
	}
	return message, nil
}

// ListMessages pages messages, newest first.
func (c *ContactService) ListMessages(xl *xlog.Logger, pageNum, pageSize int) ([]model.ContactMessageDo, int, error) {
	if xl == nil {
		xl = c.xl
	}
	total, err := c.messageColl.Find(nil).Count()
	if err != nil {
		xl.Errorf("failed to count contact messages, error %v", err)
		return nil, 0, err
	}
	messages := []model.ContactMessageDo{}
	skip := (pageNum - 1) * pageSize
	err = c.messageColl.Find(nil).Sort("-createTime").Skip(skip).Limit(pageSize).All(&messages)
	if err != nil {
		xl.Errorf("failed to list contact messages, error %v", err)
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkRead flags a message as handled.
func (c *ContactService) MarkRead(xl *xlog.Logger, messageID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.messageColl.UpdateId(messageID, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorContentNotFound, "no such message")
		}
		xl.Errorf("failed to mark contact message %s read, error %v", messageID, err)
		return err
	}
	return nil
}

func (c *ContactService) DeleteMessage(xl *xlog.Logger, messageID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.messageColl.RemoveId(messageID)
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorContentNotFound, "no such message")
		}
		xl.Errorf("failed to delete contact message %s, error %v", messageID, err)
		return err
	}
	return nil
}

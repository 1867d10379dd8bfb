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

// ApplicationService membership application collection.
type ApplicationService struct {
	mongoClient     *mgo.Session
	applicationColl *mgo.Collection
	xl              *xlog.Logger
}

func NewApplicationService(conf utils.MongoConfig, xl *xlog.Logger) (*ApplicationService, error) {
	if xl == nil {
		xl = xlog.New("polaris-application-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	applicationColl := mongoClient.DB(conf.Database).C(dao.CollectionApplication)
	return &ApplicationService{
		mongoClient:     mongoClient,
		applicationColl: applicationColl,
		xl:              xl,
	}, nil
}

// CreateApplication stores a new application in status new. Retries the
// readable ID on the unlikely collision.
func (c *ApplicationService) CreateApplication(xl *xlog.Logger, submitForm *form.ApplicationSubmitForm) (*model.ApplicationDo, error) {
	if xl == nil {
		xl = c.xl
	}
	now := time.Now()
	application := &model.ApplicationDo{
		Name:         submitForm.Name,
		Email:        submitForm.Email,
		Phone:        submitForm.Phone,
		FieldOfStudy: submitForm.FieldOfStudy,
		Division:     submitForm.Division,
		Motivation:   submitForm.Motivation,
		Status:       model.ApplicationStatusNew,
		CreateTime:   now,
		UpdateTime:   now,
	}
	for i := 0; i < 3; i++ {
		application.ID = utils.NewApplicationID(now)
		err := c.applicationColl.Insert(application)
		if err == nil {
			return application, nil
		}
		if !mgo.IsDup(err) {
			xl.Errorf("failed to insert application, error %v", err)
			return nil, err
		}
	}
	xl.Errorf("failed to allocate application ID after retries")
	return nil, errors2.New(errors2.ServerErrorMongoOpFail, "failed to allocate application ID")
}

func (c *ApplicationService) GetApplicationByID(xl *xlog.Logger, id string) (*model.ApplicationDo, error) {
	if xl == nil {
		xl = c.xl
	}
	application := model.ApplicationDo{}
	err := c.applicationColl.FindId(id).One(&application)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
		}
		xl.Errorf("failed to get application %s, error %v", id, err)
		return nil, err
	}
	return &application, nil
}

// ListApplications pages applications, newest first, optionally filtered by
// status. Returns the page and the total matching count.
func (c *ApplicationService) ListApplications(xl *xlog.Logger, status string, pageNum, pageSize int) ([]model.ApplicationDo, int, error) {
	if xl == nil {
		xl = c.xl
	}
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	total, err := c.applicationColl.Find(filter).Count()
	if err != nil {
		xl.Errorf("failed to count applications, error %v", err)
		return nil, 0, err
	}
	applications := []model.ApplicationDo{}
	skip := (pageNum - 1) * pageSize
	err = c.applicationColl.Find(filter).Sort("-createTime").Skip(skip).Limit(pageSize).All(&applications)
	if err != nil {
		xl.Errorf("failed to list applications, error %v", err)
		return nil, 0, err
	}
	return applications, total, nil
}

// UpdateStatus moves an application to the given triage status.
func (c *ApplicationService) UpdateStatus(xl *xlog.Logger, id, status string) (*model.ApplicationDo, error) {
	if xl == nil {
		xl = c.xl
	}
	change := mgo.Change{
		Update: bson.M{"$set": bson.M{
			"status":     status,
			"updateTime": time.Now(),
		}},
		ReturnNew: true,
	}
	application := model.ApplicationDo{}
	_, err := c.applicationColl.Find(bson.M{"_id": id}).Apply(change, &application)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
		}
		xl.Errorf("failed to update status of application %s, error %v", id, err)
		return nil, err
	}
	return &application, nil
}

// SetInterview records the booked interview on the application.
func (c *ApplicationService) SetInterview(xl *xlog.Logger, id string, date time.Time, meetLink, meetEventID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.applicationColl.UpdateId(id, bson.M{"$set": bson.M{
		"interviewDate": date,
		"meetLink":      meetLink,
		"meetEventId":   meetEventID,
		"updateTime":    time.Now(),
	}})
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
		}
		xl.Errorf("failed to set interview on application %s, error %v", id, err)
		return err
	}
	return nil
}

// ResetInterview clears the booked interview so the applicant can book again.
func (c *ApplicationService) ResetInterview(xl *xlog.Logger, id string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.applicationColl.UpdateId(id, bson.M{
		"$unset": bson.M{"interviewDate": "", "meetLink": "", "meetEventId": ""},
		"$set":   bson.M{"updateTime": time.Now()},
	})
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
		}
		xl.Errorf("failed to reset interview on application %s, error %v", id, err)
		return err
	}
	return nil
}

// DeleteApplication removes an application outright.
func (c *ApplicationService) DeleteApplication(xl *xlog.Logger, id string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.applicationColl.RemoveId(id)
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
		}
		xl.Errorf("failed to delete application %s, error %v", id, err)
		return err
	}
	return nil
}

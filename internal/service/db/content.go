package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db/dao"
)

// ContentService keyed content blocks for the marketing pages.
type ContentService struct {
	mongoClient *mgo.Session
	pageColl    *mgo.Collection
	xl          *xlog.Logger
}

func NewContentService(conf utils.MongoConfig, xl *xlog.Logger) (*ContentService, error) {
	if xl == nil {
		xl = xlog.New("polaris-content-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	pageColl := mongoClient.DB(conf.Database).C(dao.CollectionPageContent)
	return &ContentService{
		mongoClient: mongoClient,
		pageColl:    pageColl,
		xl:          xl,
	}, nil
}

func (c *ContentService) GetPage(xl *xlog.Logger, key string) (*model.PageContentDo, error) {
	if xl == nil {
		xl = c.xl
	}
	page := model.PageContentDo{}
	err := c.pageColl.FindId(key).One(&page)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorContentNotFound, "no such page")
		}
		xl.Errorf("failed to get page %s, error %v", key, err)
		return nil, err
	}
	return &page, nil
}

// UpsertPage creates or replaces the block under the given key.
func (c *ContentService) UpsertPage(xl *xlog.Logger, key, title, body, updatedBy string) (*model.PageContentDo, error) {
	if xl == nil {
		xl = c.xl
	}
	page := &model.PageContentDo{
		ID:         key,
		Title:      title,
		Body:       body,
		UpdatedBy:  updatedBy,
		UpdateTime: time.Now(),
	}
	_, err := c.pageColl.UpsertId(key, page)
	if err != nil {
		xl.Errorf("failed to upsert page %s, error %v", key, err)
		return nil, err
	}
	return page, nil
}

func (c *ContentService) ListPages(xl *xlog.Logger) ([]model.PageContentDo, error) {
	if xl == nil {
		xl = c.xl
	}
	pages := []model.PageContentDo{}
	err := c.pageColl.Find(nil).Sort("_id").All(&pages)
	if err != nil {
		xl.Errorf("failed to list pages, error %v", err)
		return nil, err
	}
	return pages, nil
}

func (c *ContentService) DeletePage(xl *xlog.Logger, key string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.pageColl.RemoveId(key)
	if err != nil {
		if err == mgo.ErrNotFound {
			return errors2.New(errors2.ServerErrorContentNotFound, "no such page")
		}
		xl.Errorf("failed to delete page %s, error %v", key, err)
		return err
	}
	return nil
}

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

// UploadService bookkeeping for files pushed through the storage gateway.
type UploadService struct {
	mongoClient *mgo.Session
	fileColl    *mgo.Collection
	xl          *xlog.Logger
}

func NewUploadService(conf utils.MongoConfig, xl *xlog.Logger) (*UploadService, error) {
	if xl == nil {
		xl = xlog.New("polaris-upload-db")
	}
	mongoClient, err := mgo.Dial(conf.URI + "/" + conf.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	fileColl := mongoClient.DB(conf.Database).C(dao.CollectionUploadFile)
	return &UploadService{
		mongoClient: mongoClient,
		fileColl:    fileColl,
		xl:          xl,
	}, nil
}

func (c *UploadService) RecordUpload(xl *xlog.Logger, fileName, fileURL string, size int64, uploadedBy string) (*model.UploadFileDo, error) {
	if xl == nil {
		xl = c.xl
	}
	file := &model.UploadFileDo{
		ID:         utils.GenerateID(),
		FileName:   fileName,
		FileURL:    fileURL,
		Size:       size,
		UploadedBy: uploadedBy,
		CreateTime: time.Now(),
	}
	err := c.fileColl.Insert(file)
	if err != nil {
		xl.Errorf("failed to record upload, error %v", err)
		return nil, err
	}
	return file, nil
}

// ListUploads pages upload records, newest first.
func (c *UploadService) ListUploads(xl *xlog.Logger, pageNum, pageSize int) ([]model.UploadFileDo, int, error) {
	if xl == nil {
		xl = c.xl
	}
	total, err := c.fileColl.Find(nil).Count()
	if err != nil {
		xl.Errorf("failed to count uploads, error %v", err)
		return nil, 0, err
	}
	files := []model.UploadFileDo{}
	skip := (pageNum - 1) * pageSize
	err = c.fileColl.Find(nil).Sort("-createTime").Skip(skip).Limit(pageSize).All(&files)
	if err != nil {
		xl.Errorf("failed to list uploads, error %v", err)
		return nil, 0, err
	}
	return files, total, nil
}

func (c *UploadService) DeleteUpload(xl *xlog.Logger, fileID string) (*model.UploadFileDo, error) {
	if xl == nil {
		xl = c.xl
	}
	file := model.UploadFileDo{}
	err := c.fileColl.FindId(fileID).One(&file)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorContentNotFound, "no such file")
		}
		xl.Errorf("failed to get upload %s, error %v", fileID, err)
		return nil, err
	}
	if err := c.fileColl.RemoveId(fileID); err != nil {
		xl.Errorf("failed to delete upload %s, error %v", fileID, err)
		return nil, err
	}
	return &file, nil
}

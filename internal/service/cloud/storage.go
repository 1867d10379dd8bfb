package cloud

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
)

// StorageService pushes admin uploads into kodo and hands back public URLs.
type StorageService struct {
	keyPair   utils.QiniuKeyPair
	bucket    string
	urlPrefix string
	xl        *xlog.Logger
}

func NewStorageService(conf *utils.Config, xl *xlog.Logger) *StorageService {
	if xl == nil {
		xl = xlog.New("polaris-storage")
	}
	return &StorageService{
		keyPair:   conf.QiniuKeyPair,
		bucket:    conf.Storage.Bucket,
		urlPrefix: conf.Storage.URLPrefix,
		xl:        xl,
	}
}

// Upload stores data under a timestamped key and returns the public URL.
func (s *StorageService) Upload(xl *xlog.Logger, fileName string, data []byte) (string, error) {
	if xl == nil {
		xl = s.xl
	}
	fileKey := fmt.Sprintf("uploads/%d-%s", time.Now().UnixNano(), fileName)
	mac := qbox.NewMac(s.keyPair.AccessKey, s.keyPair.SecretKey)
	putPolicy := storage.PutPolicy{
		Scope: s.bucket,
	}
	upToken := putPolicy.UploadToken(mac)
	cfg := storage.Config{}
	cfg.UseHTTPS = true
	cfg.UseCdnDomains = false
	formUploader := storage.NewFormUploader(&cfg)
	ret := storage.PutRet{}
	err := formUploader.Put(context.Background(), &ret, upToken, fileKey, bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		xl.Errorf("file uploading failed err:%v", err)
		return "", errors2.New(errors2.ServerErrorUploadFail, "upload failed")
	}
	xl.Infof("file upload success, key %s", fileKey)
	return s.urlPrefix + "/" + fileKey, nil
}

// ClientUploadToken mints a token the frontend can upload with directly.
func (s *StorageService) ClientUploadToken() string {
	mac := qbox.NewMac(s.keyPair.AccessKey, s.keyPair.SecretKey)
	putPolicy := storage.PutPolicy{
		Scope: s.bucket,
	}
	putPolicy.Expires = 3600 * 24
	return putPolicy.UploadToken(mac)
}

package handler

import (
	"io/ioutil"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/cloud"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

// maxUploadBytes upload size cap, 16 MiB.
const maxUploadBytes = 16 << 20

// FileStorage object storage operations used by the handler.
type FileStorage interface {
	Upload(xl *xlog.Logger, fileName string, data []byte) (string, error)
	ClientUploadToken() string
}

// UploadStore upload bookkeeping.
type UploadStore interface {
	RecordUpload(xl *xlog.Logger, fileName, fileURL string, size int64, uploadedBy string) (*model.UploadFileDo, error)
	ListUploads(xl *xlog.Logger, pageNum, pageSize int) ([]model.UploadFileDo, int, error)
	DeleteUpload(xl *xlog.Logger, fileID string) (*model.UploadFileDo, error)
}

// FileHandler admin uploads through the storage gateway.
type FileHandler struct {
	Storage FileStorage
	Upload  UploadStore
}

func NewFileHandler(conf *utils.Config) *FileHandler {
	uploadService, err := db.NewUploadService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	return &FileHandler{
		Storage: cloud.NewStorageService(conf, nil),
		Upload:  uploadService,
	}
}

// UploadFile accepts a multipart upload, pushes it to object storage and
// records it.
func (h *FileHandler) UploadFile(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		responseErr := model.NewResponseError(model.ErrCodeValidation, "file is too large")
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	defer file.Close()
	data, err := ioutil.ReadAll(file)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	fileURL, err := h.Storage.Upload(xl, fileHeader.Filename, data)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorUploadFail) {
			responseErr := model.NewResponseErrorExternalService()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if _, err := h.Upload.RecordUpload(xl, fileHeader.Filename, fileURL, fileHeader.Size, account.ID); err != nil {
		xl.Errorf("upload stored but not recorded, url %s, error %v", fileURL, err)
	}
	resp := model.UploadResponse{FileName: fileHeader.Filename, FileURL: fileURL}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// UploadToken hands the frontend a direct-upload token.
func (h *FileHandler) UploadToken(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	model.NewSuccessResponse(gin.H{"token": h.Storage.ClientUploadToken()}).WithRequestID(requestID).Send(c)
}

// ListUploads admin paged list of recorded uploads.
func (h *FileHandler) ListUploads(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	pageNum := c.GetInt(model.PageNumContextKey)
	pageSize := c.GetInt(model.PageSizeContextKey)

	files, total, err := h.Upload.ListUploads(xl, pageNum, pageSize)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	page := model.Pagination{}
	page.List = make([]interface{}, 0, len(files))
	for _, file := range files {
		page.List = append(page.List, file)
	}
	page.FillPages(pageNum, pageSize, len(files), total)
	model.NewSuccessResponse(page).WithRequestID(requestID).Send(c)
}

// DeleteUpload removes the record of one upload.
func (h *FileHandler) DeleteUpload(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	fileID := c.Param("fileId")
	if _, err := h.Upload.DeleteUpload(xl, fileID); err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("file")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/form"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

// ContentStore keyed page block operations used by the handler.
type ContentStore interface {
	GetPage(xl *xlog.Logger, key string) (*model.PageContentDo, error)
	UpsertPage(xl *xlog.Logger, key, title, body, updatedBy string) (*model.PageContentDo, error)
	ListPages(xl *xlog.Logger) ([]model.PageContentDo, error)
	DeletePage(xl *xlog.Logger, key string) error
}

// ContentHandler public page reads plus admin editing.
type ContentHandler struct {
	Content ContentStore
}

func NewContentHandler(conf *utils.Config) *ContentHandler {
	contentService, err := db.NewContentService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	return &ContentHandler{Content: contentService}
}

func pageResponse(page model.PageContentDo) model.PageContentResponse {
	return model.PageContentResponse{
		Key:        page.ID,
		Title:      page.Title,
		Body:       page.Body,
		UpdateTime: page.UpdateTime.Unix(),
	}
}

// GetPage public read of one content block.
func (h *ContentHandler) GetPage(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	key := c.Param("key")
	if err := form.ValidatePageKey(key); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	page, err := h.Content.GetPage(xl, key)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("page")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(pageResponse(*page)).WithRequestID(requestID).Send(c)
}

// ListPages admin overview of all blocks.
func (h *ContentHandler) ListPages(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	pages, err := h.Content.ListPages(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.PageContentResponse, 0, len(pages))
	for _, page := range pages {
		list = append(list, pageResponse(page))
	}
	model.NewSuccessResponse(gin.H{"list": list, "total": len(list)}).WithRequestID(requestID).Send(c)
}

// UpsertPage admin create-or-replace of one block.
func (h *ContentHandler) UpsertPage(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	key := c.Param("key")
	if err := form.ValidatePageKey(key); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	contentForm := form.PageContentForm{}
	if err := c.Bind(&contentForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := contentForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	page, err := h.Content.UpsertPage(xl, key, contentForm.Title, contentForm.Body, account.ID)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(pageResponse(*page)).WithRequestID(requestID).Send(c)
}

// DeletePage admin delete of one block.
func (h *ContentHandler) DeletePage(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	key := c.Param("key")
	if err := h.Content.DeletePage(xl, key); err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("page")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// Copyright 2026 Polaris Rocketry
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/web/handler"
	"github.com/polaris-rocketry/polaris-server/internal/service/web/middleware"
)

// NewRouter wires all handlers onto the gin engine.
//
// Route map:
//
//	/v1            public: content, forms, newsletter, booking
//	/v1/admin      approved accounts only
func NewRouter(config *utils.Config) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(config))

	accountHandler := handler.NewAccountHandler(config)
	applicationHandler := handler.NewApplicationHandler(config)
	bookingHandler := handler.NewBookingHandler(config)
	slotHandler := handler.NewSlotHandler(config)
	contactHandler := handler.NewContactHandler(config)
	newsletterHandler := handler.NewNewsletterHandler(config)
	contentHandler := handler.NewContentHandler(config)
	fileHandler := handler.NewFileHandler(config)

	middleware.InitMiddleware(config)

	v1 := router.Group("/v1", addRequestID, middleware.FetchPageInfo)
	{
		// Marketing content and the newsletter archive.
		v1.GET("pages/:key", contentHandler.GetPage)
		v1.GET("newsletter/issues", newsletterHandler.ListIssues)
		v1.GET("newsletter/issues/:issueId", newsletterHandler.GetIssue)

		// Public forms.
		v1.POST("contact", contactHandler.SubmitMessage)
		v1.POST("newsletter/subscribe", newsletterHandler.Subscribe)
		v1.POST("newsletter/unsubscribe", newsletterHandler.Unsubscribe)
		v1.POST("applications", applicationHandler.SubmitApplication)

		// Interview booking.
		v1.GET("interview/slots", bookingHandler.ListOpenSlots)
		v1.POST("applications/:applicationId/book", bookingHandler.BookInterview)

		// Back-office sign-up/sign-in.
		v1.POST("signUp", accountHandler.SignUp)
		v1.POST("signIn", accountHandler.SignIn)
	}

	authed := v1.Group("", middleware.Authenticate)
	{
		authed.POST("signOut", accountHandler.SignOut)
		authed.GET("profile", accountHandler.Profile)
	}

	admin := authed.Group("admin", middleware.RequireApproved)
	{
		admin.GET("slots", slotHandler.ListSlots)
		admin.POST("slots", slotHandler.CreateSlot)
		admin.POST("slots/bulk", slotHandler.CreateSlotsBulk)
		admin.DELETE("slots/:slotId", slotHandler.DeleteSlot)
		admin.DELETE("slots", slotHandler.DeleteUnbookedSlots)

		admin.GET("applications", applicationHandler.ListApplications)
		admin.GET("applications/:applicationId", applicationHandler.GetApplication)
		admin.PUT("applications/:applicationId/status", applicationHandler.UpdateStatus)
		admin.POST("applications/:applicationId/resetInterview", applicationHandler.ResetInterview)
		admin.DELETE("applications/:applicationId", applicationHandler.DeleteApplication)

		admin.GET("contact/messages", contactHandler.ListMessages)
		admin.POST("contact/messages/:messageId/read", contactHandler.MarkMessageRead)
		admin.DELETE("contact/messages/:messageId", contactHandler.DeleteMessage)

		admin.GET("newsletter/subscribers", newsletterHandler.ListSubscribers)
		admin.POST("newsletter/issues", newsletterHandler.CreateIssue)
		admin.DELETE("newsletter/issues/:issueId", newsletterHandler.DeleteIssue)

		admin.GET("pages", contentHandler.ListPages)
		admin.PUT("pages/:key", contentHandler.UpsertPage)
		admin.DELETE("pages/:key", contentHandler.DeletePage)

		admin.POST("upload", fileHandler.UploadFile)
		admin.GET("token/kodo", fileHandler.UploadToken)
		admin.GET("uploads", fileHandler.ListUploads)
		admin.DELETE("uploads/:fileId", fileHandler.DeleteUpload)

		admin.GET("accounts", accountHandler.ListAccounts)
		admin.POST("accounts/:accountId/approve", accountHandler.Approve)
		admin.POST("accounts/:accountId/revoke", accountHandler.Revoke)
	}

	router.NoRoute(addRequestID, returnNotFound)
	router.RedirectTrailingSlash = false

	return router, nil
}

func addRequestID(c *gin.Context) {
	requestID := ""
	if requestID = c.Request.Header.Get(model.RequestIDHeader); requestID == "" {
		requestID = utils.NewReqID()
		c.Request.Header.Set(model.RequestIDHeader, requestID)
	}
	xl := xlog.New(requestID)
	xl.Debugf("request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.Set(model.XLogKey, xl)
	c.Set(model.RequestStartKey, time.Now())
	c.Next()
	start := c.MustGet(model.RequestStartKey).(time.Time)
	xl.Debugf("response: %s %s %d in %v",
		c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}

func returnNotFound(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	xl.Debugf("%s %s: not found", c.Request.Method, c.Request.URL.Path)
	responseErr := model.NewResponseErrorNotFound("route")
	model.NewFailResponse(*responseErr).Send(c)
}

func corsMiddleware(config *utils.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if config.FrontendUrlHost != "" {
		corsConfig.AllowOrigins = []string{config.FrontendUrlHost}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", model.RequestIDHeader)
	return cors.New(corsConfig)
}

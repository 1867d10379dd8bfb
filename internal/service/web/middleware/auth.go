package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

var (
	accountService *db.AccountService
	xl             = xlog.New("Middleware")
)

func InitMiddleware(conf *utils.Config) {
	var err error
	accountService, err = db.NewAccountService(conf, xl)
	if err != nil {
		xl.Fatalf("error creating account service err:%v", err)
	}
}

// Authenticate resolves Authorization: Bearer <token> into the account and
// stores it in the context. Requests without a valid session stop here.
func Authenticate(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		xl.Debugf("%s %s: request unauthorized, wrong auth header format", c.Request.Method, c.Request.URL.Path)
		responseErr := model.NewResponseErrorUnauthenticated()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		c.Abort()
		return
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	account, err := accountService.GetAccountByToken(xl, token)
	if err != nil {
		xl.Debugf("%s %s: request unauthorized, error %v", c.Request.Method, c.Request.URL.Path, err)
		responseErr := model.NewResponseErrorUnauthenticated()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		c.Abort()
		return
	}
	c.Set(model.AccountContextKey, *account)
	c.Set(model.AccountIDContextKey, account.ID)
}

// RequireApproved gates the admin area. Unapproved accounts can hold a
// session but get 403 here until another admin approves them.
func RequireApproved(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	val, ok := c.Get(model.AccountContextKey)
	if !ok {
		responseErr := model.NewResponseErrorUnauthenticated()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		c.Abort()
		return
	}
	account, ok := val.(model.AccountDo)
	if !ok || !account.Approved {
		xl.Debugf("account %s is not approved, admin access denied", account.ID)
		responseErr := model.NewResponseErrorForbidden()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		c.Abort()
		return
	}
}

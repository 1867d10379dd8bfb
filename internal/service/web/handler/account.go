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

// AccountStore account operations used by the handler.
type AccountStore interface {
	CreateAccount(xl *xlog.Logger, name, email, password string) (*model.AccountDo, error)
	AccountLogin(xl *xlog.Logger, email, password string) (*model.AccountDo, string, error)
	AccountLogout(xl *xlog.Logger, accountID string) error
	ListAccounts(xl *xlog.Logger) ([]model.AccountDo, error)
	SetApproved(xl *xlog.Logger, accountID string, approved bool) (*model.AccountDo, error)
}

// AccountHandler sign-up/sign-in plus admin approval.
type AccountHandler struct {
	Account AccountStore
}

func NewAccountHandler(conf *utils.Config) *AccountHandler {
	accountService, err := db.NewAccountService(conf, nil)
	if err != nil {
		panic(err)
	}
	return &AccountHandler{Account: accountService}
}

func accountResponse(account model.AccountDo) model.AccountResponse {
	return model.AccountResponse{
		ID:       account.ID,
		Email:    account.Email,
		Name:     account.Name,
		Approved: account.Approved,
	}
}

// SignUp registers a back-office account. New accounts wait for approval
// unless bootstrapped.
func (h *AccountHandler) SignUp(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	signUpForm := form.SignUpForm{}
	if err := c.Bind(&signUpForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := signUpForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	account, err := h.Account.CreateAccount(xl, signUpForm.Name, signUpForm.Email, signUpForm.Password)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorAccountExists) {
			responseErr := model.NewResponseError(model.ErrCodeValidation, "email already registered")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(accountResponse(*account)).WithRequestID(requestID).Send(c)
}

// SignIn trades credentials for a bearer token.
func (h *AccountHandler) SignIn(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	signInForm := form.SignInForm{}
	if err := c.Bind(&signInForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := signInForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	account, token, err := h.Account.AccountLogin(xl, signInForm.Email, signInForm.Password)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorWrongCredentials) {
			responseErr := model.NewResponseError(model.ErrCodeUnauthenticated, "wrong email or password")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	resp := model.SignInResponse{AccountResponse: accountResponse(*account), Token: token}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// SignOut drops the caller's session.
func (h *AccountHandler) SignOut(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	accountID := c.GetString(model.AccountIDContextKey)

	if err := h.Account.AccountLogout(xl, accountID); err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// Profile returns the signed-in account.
func (h *AccountHandler) Profile(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	model.NewSuccessResponse(accountResponse(account)).WithRequestID(requestID).Send(c)
}

// ListAccounts admin view of all accounts.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	accounts, err := h.Account.ListAccounts(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, accountResponse(account))
	}
	model.NewSuccessResponse(gin.H{"list": list, "total": len(list)}).WithRequestID(requestID).Send(c)
}

// Approve grants admin access to an account.
func (h *AccountHandler) Approve(c *gin.Context) {
	h.setApproved(c, true)
}

// Revoke withdraws admin access and ends the account's session.
func (h *AccountHandler) Revoke(c *gin.Context) {
	h.setApproved(c, false)
}

func (h *AccountHandler) setApproved(c *gin.Context, approved bool) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	targetID := c.Param("accountId")
	if !approved && targetID == c.GetString(model.AccountIDContextKey) {
		responseErr := model.NewResponseError(model.ErrCodeValidation, "cannot revoke your own access")
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	account, err := h.Account.SetApproved(xl, targetID, approved)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorAccountNotFound) {
			responseErr := model.NewResponseErrorNotFound("account")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(accountResponse(*account)).WithRequestID(requestID).Send(c)
}

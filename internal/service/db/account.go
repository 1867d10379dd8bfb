package db

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db/dao"
)

// AccountService back-office accounts and their session tokens.
type AccountService struct {
	mongoClient *mgo.Session
	accountColl *mgo.Collection
	tokenColl   *mgo.Collection
	jwtKey      string
	// bootstrapAdmins sign up pre-approved.
	bootstrapAdmins map[string]bool
	xl              *xlog.Logger
}

func NewAccountService(conf *utils.Config, xl *xlog.Logger) (*AccountService, error) {
	if xl == nil {
		xl = xlog.New("polaris-account-db")
	}
	mongoClient, err := mgo.Dial(conf.Mongo.URI + "/" + conf.Mongo.Database)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	bootstrapAdmins := map[string]bool{}
	for _, email := range conf.BootstrapAdmins {
		bootstrapAdmins[email] = true
	}
	return &AccountService{
		mongoClient:     mongoClient,
		accountColl:     mongoClient.DB(conf.Mongo.Database).C(dao.CollectionAccount),
		tokenColl:       mongoClient.DB(conf.Mongo.Database).C(dao.CollectionAccountToken),
		jwtKey:          conf.JwtKey,
		bootstrapAdmins: bootstrapAdmins,
		xl:              xl,
	}, nil
}

// CreateAccount registers a back-office account. Bootstrap admins come out
// approved, everyone else waits for approval.
func (c *AccountService) CreateAccount(xl *xlog.Logger, name, email, password string) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	count, err := c.accountColl.Find(bson.M{"email": email}).Count()
	if err != nil {
		xl.Errorf("failed to look up account by email, error %v", err)
		return nil, err
	}
	if count > 0 {
		return nil, errors2.New(errors2.ServerErrorAccountExists, "email already registered")
	}
	salt := utils.GenerateID()
	account := &model.AccountDo{
		ID:             utils.GenerateID(),
		Email:          email,
		Name:           name,
		PasswordDigest: model.PasswordDigest(password, salt),
		Salt:           salt,
		Approved:       c.bootstrapAdmins[email],
		RegisterTime:   time.Now(),
	}
	err = c.accountColl.Insert(account)
	if err != nil {
		xl.Errorf("failed to insert account, error %v", err)
		return nil, err
	}
	xl.Infof("registered account %s (%s), approved %v", account.ID, email, account.Approved)
	return account, nil
}

func (c *AccountService) makeLoginToken(xl *xlog.Logger, account *model.AccountDo) string {
	claims := jwt.MapClaims{
		"accountId": account.ID,
		"random":    utils.GenerateID(),
		"signTime":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenStr, err := token.SignedString([]byte(c.jwtKey))
	if err != nil {
		xl.Errorf("failed to sign jwt token, error %v", err)
		return ""
	}
	return tokenStr
}

// AccountLogin checks credentials and replaces the account's session token.
func (c *AccountService) AccountLogin(xl *xlog.Logger, email, password string) (*model.AccountDo, string, error) {
	if xl == nil {
		xl = c.xl
	}
	account := model.AccountDo{}
	err := c.accountColl.Find(bson.M{"email": email}).One(&account)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, "", errors2.New(errors2.ServerErrorWrongCredentials, "wrong email or password")
		}
		xl.Errorf("failed to look up account by email, error %v", err)
		return nil, "", err
	}
	if !account.CheckPassword(password) {
		return nil, "", errors2.New(errors2.ServerErrorWrongCredentials, "wrong email or password")
	}

	tokenStr := c.makeLoginToken(xl, &account)
	if tokenStr == "" {
		return nil, "", errors2.New(errors2.ServerErrorMongoOpFail, "failed to issue token")
	}
	tokenDo := model.AccountTokenDo{
		ID:             account.ID,
		AccountID:      account.ID,
		Token:          tokenStr,
		LastModifyTime: time.Now(),
	}
	if _, err := c.tokenColl.UpsertId(tokenDo.ID, tokenDo); err != nil {
		xl.Errorf("failed to store login token, error %v", err)
		return nil, "", err
	}
	if err := c.accountColl.UpdateId(account.ID, bson.M{"$set": bson.M{"lastLoginTime": time.Now()}}); err != nil {
		xl.Errorf("failed to record login time, error %v", err)
	}
	return &account, tokenStr, nil
}

// AccountLogout drops the session token, if any.
func (c *AccountService) AccountLogout(xl *xlog.Logger, accountID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.tokenColl.RemoveId(accountID)
	if err != nil && err != mgo.ErrNotFound {
		xl.Errorf("failed to remove login token, error %v", err)
		return err
	}
	return nil
}

// GetAccountByToken resolves a bearer token to its account. The token must
// both verify against the signing key and match the stored session.
func (c *AccountService) GetAccountByToken(xl *xlog.Logger, tokenStr string) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(c.jwtKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errors2.New(errors2.ServerErrorWrongCredentials, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors2.New(errors2.ServerErrorWrongCredentials, "invalid token")
	}
	accountID, ok := claims["accountId"].(string)
	if !ok {
		return nil, errors2.New(errors2.ServerErrorWrongCredentials, "invalid token")
	}

	tokenDo := model.AccountTokenDo{}
	err = c.tokenColl.FindId(accountID).One(&tokenDo)
	if err != nil || tokenDo.Token != tokenStr {
		return nil, errors2.New(errors2.ServerErrorWrongCredentials, "session expired")
	}
	return c.GetAccountByID(xl, accountID)
}

func (c *AccountService) GetAccountByID(xl *xlog.Logger, accountID string) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	account := model.AccountDo{}
	err := c.accountColl.FindId(accountID).One(&account)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorAccountNotFound, "no such account")
		}
		xl.Errorf("failed to get account %s, error %v", accountID, err)
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns all accounts, oldest first.
func (c *AccountService) ListAccounts(xl *xlog.Logger) ([]model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	accounts := []model.AccountDo{}
	err := c.accountColl.Find(nil).Sort("registerTime").All(&accounts)
	if err != nil {
		xl.Errorf("failed to list accounts, error %v", err)
		return nil, err
	}
	return accounts, nil
}

// SetApproved flips an account's approval flag.
func (c *AccountService) SetApproved(xl *xlog.Logger, accountID string, approved bool) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	change := mgo.Change{
		Update:    bson.M{"$set": bson.M{"approved": approved}},
		ReturnNew: true,
	}
	account := model.AccountDo{}
	_, err := c.accountColl.Find(bson.M{"_id": accountID}).Apply(change, &account)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, errors2.New(errors2.ServerErrorAccountNotFound, "no such account")
		}
		xl.Errorf("failed to set approval of account %s, error %v", accountID, err)
		return nil, err
	}
	if !approved {
		// Revoking approval also ends any live session.
		_ = c.AccountLogout(xl, accountID)
	}
	return &account, nil
}

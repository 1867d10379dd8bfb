package form

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
)

const (
	ErrNameMsg       = "name is too long"
	ErrMotivationMsg = "motivation is too long"
	ErrStatusMsg     = "unknown application status"
)

// ApplicationSubmitForm public membership application.
type ApplicationSubmitForm struct {
	Name         string `json:"name" form:"name"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	FieldOfStudy string `json:"fieldOfStudy" form:"fieldOfStudy"`
	Division     string `json:"division" form:"division"`
	Motivation   string `json:"motivation" form:"motivation"`
}

func (f *ApplicationSubmitForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 120).Error(ErrNameMsg)),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Phone, validation.Length(0, 32)),
		validation.Field(&f.FieldOfStudy, validation.Length(0, 120)),
		validation.Field(&f.Division, validation.Length(0, 60)),
		validation.Field(&f.Motivation, validation.Length(0, 4000).Error(ErrMotivationMsg)),
	)
}

// ApplicationStatusForm admin status transition.
type ApplicationStatusForm struct {
	Status string `json:"status" form:"status"`
}

func (f *ApplicationStatusForm) Validate() error {
	statuses := make([]interface{}, 0, len(model.ApplicationStatuses))
	for _, s := range model.ApplicationStatuses {
		statuses = append(statuses, s)
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.Required, validation.In(statuses...).Error(ErrStatusMsg)),
	)
}

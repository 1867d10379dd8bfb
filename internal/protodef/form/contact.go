package form

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ContactForm public contact message.
type ContactForm struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Body    string `json:"body" form:"body"`
}

func (f *ContactForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Subject, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Body, validation.Required, validation.Length(1, 8000)),
	)
}

// SubscribeForm newsletter subscription; also used for unsubscribe.
type SubscribeForm struct {
	Email string `json:"email" form:"email"`
}

func (f *SubscribeForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Email, validation.Required, is.Email),
	)
}

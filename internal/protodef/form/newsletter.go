package form

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// RegPageKey keys of the marketing content blocks.
	RegPageKey = regexp.MustCompile(`^[a-z][a-z0-9-]{1,40}$`)
)

const ErrPageKeyMsg = "malformed page key"

// NewsletterIssueForm admin create/update of one archive issue.
type NewsletterIssueForm struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

func (f *NewsletterIssueForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Body, validation.Required),
	)
}

// PageContentForm admin upsert of a keyed content block; the key itself is a
// path parameter.
type PageContentForm struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

func (f *PageContentForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Body, validation.Required),
	)
}

// ValidatePageKey checks the path parameter of page endpoints.
func ValidatePageKey(key string) error {
	return validation.Validate(key,
		validation.Required,
		validation.Match(RegPageKey).Error(ErrPageKeyMsg),
	)
}

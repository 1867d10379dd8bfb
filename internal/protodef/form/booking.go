package form

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// RegApplicationID readable application id: APP- plus alphanumeric
	// segments, e.g. APP-2026-X7K9QZ.
	RegApplicationID = regexp.MustCompile(`^APP-[A-Za-z0-9]+(-[A-Za-z0-9]+)*$`)
	RegSlotID        = regexp.MustCompile(`^[a-z0-9]{12}$`)
)

const (
	ErrApplicationIDMsg = "malformed application id"
	ErrSlotIDMsg        = "malformed slot id"
)

// BookInterviewForm body of the public booking request. The application id
// comes from the path and is validated alongside.
type BookInterviewForm struct {
	SlotID string `json:"slotId" form:"slotId"`
}

func (f *BookInterviewForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.SlotID, validation.Required, validation.Match(RegSlotID).Error(ErrSlotIDMsg)),
	)
}

// ValidateApplicationID checks the path parameter against the readable id
// pattern.
func ValidateApplicationID(id string) error {
	return validation.Validate(id,
		validation.Required,
		validation.Match(RegApplicationID).Error(ErrApplicationIDMsg),
	)
}

package form

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	RegDay       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	RegClockTime = regexp.MustCompile(`^\d{2}:\d{2}$`)

	ErrSlotOrder  = fmt.Errorf("slot start must be before its end")
	ErrSlotInPast = fmt.Errorf("slot must start in the future")
)

const (
	ErrDayMsg      = "day must be formatted as 2006-01-02"
	ErrClockMsg    = "time must be formatted as 15:04"
	ErrDurationMsg = "duration must be between 15 and 480 minutes"
)

// SlotCreateForm a single slot from explicit unix timestamps.
type SlotCreateForm struct {
	StartTime int64 `json:"startTime" form:"startTime"`
	EndTime   int64 `json:"endTime" form:"endTime"`
}

func (f *SlotCreateForm) Validate() error {
	err := validation.ValidateStruct(f,
		validation.Field(&f.StartTime, validation.Required),
		validation.Field(&f.EndTime, validation.Required),
	)
	if err != nil {
		return err
	}
	if f.StartTime >= f.EndTime {
		return ErrSlotOrder
	}
	if f.StartTime <= time.Now().Unix() {
		return ErrSlotInPast
	}
	return nil
}

// SlotBulkCreateForm generates consecutive slots covering day/start..end;
// a remainder shorter than one duration is dropped.
type SlotBulkCreateForm struct {
	Day             string `json:"day" form:"day"`
	StartTime       string `json:"startTime" form:"startTime"`
	EndTime         string `json:"endTime" form:"endTime"`
	DurationMinutes int    `json:"durationMinutes" form:"durationMinutes"`
}

func (f *SlotBulkCreateForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Day, validation.Required, validation.Match(RegDay).Error(ErrDayMsg)),
		validation.Field(&f.StartTime, validation.Required, validation.Match(RegClockTime).Error(ErrClockMsg)),
		validation.Field(&f.EndTime, validation.Required, validation.Match(RegClockTime).Error(ErrClockMsg)),
		validation.Field(&f.DurationMinutes, validation.Required, validation.Min(15).Error(ErrDurationMsg), validation.Max(480).Error(ErrDurationMsg)),
	)
}

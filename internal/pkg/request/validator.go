package request

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator:
//
//	hhmm  a time of day, "HH:MM" or "HH:MM:SS", "24:00" allowed
//	ymd   a calendar date, "YYYY-MM-DD"
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("hhmm", validateTimeOfDay); err != nil {
			return
		}
		err = v.RegisterValidation("ymd", validateDate)
	})
	return err
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := timewindow.ParseMinute(fl.Field().String())
	return err == nil
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := timewindow.ParseDate(fl.Field().String())
	return err == nil
}

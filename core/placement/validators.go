package placement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/preceptor/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "{0} must be a day of the week"
)

func init() {
	_ = core.Validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(weekdayTag, weekdayText)

	core.RegisterEmailTemplate(tmplRequestConfirmed, requestConfirmedText)
	core.RegisterEmailTemplate(tmplRequestRejected, requestRejectedText)
}

func weekdayValidation(fl validator.FieldLevel) bool {
	day := fl.Field().String()
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == day {
			return true
		}
	}
	return false
}

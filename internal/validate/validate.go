// Package validate checks a proposed event before it is written.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"deskcal/internal/datemath"
	"deskcal/internal/model"
)

// Field keys used in Result.Errors. They match the JSON field names so a
// client can map each error back onto its input.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldStartTime   = "startTime"
	FieldEndTime     = "endTime"
	FieldColor       = "color"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Custom tags referenced from the validate struct tags on model.Fields.
const (
	tagISODate    = "isodate"
	tagClock      = "clock"
	tagRGBHex     = "rgbhex"
	tagAfterStart = "after_start"
)

var hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, tagISODate, func(fl validator.FieldLevel) bool {
		return datemath.IsValidISO(fl.Field().String())
	})
	mustRegister(v, tagClock, func(fl validator.FieldLevel) bool {
		return datemath.IsValidClock(fl.Field().String())
	})
	// The built-in hexcolor tag also accepts #RGBA and #RRGGBBAA.
	mustRegister(v, tagRGBHex, func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})

	v.RegisterStructValidation(fieldsStructLevel, model.Fields{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validate: register " + tag + ": " + err.Error())
	}
}

// fieldsStructLevel holds the rules that span or normalize fields.
func fieldsStructLevel(sl validator.StructLevel) {
	f := sl.Current().Interface().(model.Fields)

	// "required" only rejects the empty string; whitespace-only titles
	// are empty once trimmed.
	if f.Title != "" && strings.TrimSpace(f.Title) == "" {
		sl.ReportError(f.Title, FieldTitle, "Title", "required", "")
	}

	startMin, startErr := datemath.ParseClock(f.StartTime)
	endMin, endErr := datemath.ParseClock(f.EndTime)
	if startErr == nil && endErr == nil && endMin <= startMin {
		sl.ReportError(f.EndTime, FieldEndTime, "EndTime", tagAfterStart, f.StartTime)
	}
}

// messages maps field and failed tag onto the text shown to the user.
var messages = map[string]map[string]string{
	FieldTitle: {
		"required": "Title is required",
		"max":      "Title must be at most 100 characters",
	},
	FieldDescription: {
		"max": "Description must be at most 500 characters",
	},
	FieldDate: {
		"required": "Date is required",
		tagISODate: "Valid date is required",
	},
	FieldStartTime: {
		"required": "Start time is required",
		tagClock:   "Valid start time is required",
	},
	FieldEndTime: {
		"required":    "End time is required",
		tagClock:      "Valid end time is required",
		tagAfterStart: "End time must be after start time",
	},
	FieldColor: {
		tagRGBHex: "Valid color is required",
	},
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
		return msg
	}
	return "Invalid " + fe.Field()
}

// Result lists every violated field with a human readable reason.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// IsHexColor reports whether s is a #RGB or #RRGGBB color.
func IsHexColor(s string) bool {
	return validate.Var(s, tagRGBHex) == nil
}

// Event runs every rule against f. Rules are independent; all of them are
// evaluated so callers can flag every bad input at once. A field reports
// at most one reason.
func Event(f model.Fields) Result {
	errs := make(map[string]string)

	err := validate.Struct(f)
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			if _, seen := errs[fe.Field()]; !seen {
				errs[fe.Field()] = message(fe)
			}
		}
	default:
		// Struct only fails this way for non-struct input.
		panic(err)
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

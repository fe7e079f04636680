package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"deskcal/internal/model"
)

func validFields() model.Fields {
	return model.Fields{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        "2024-03-05",
		StartTime:   "10:00",
		EndTime:     "10:30",
		Color:       "#4CAF50",
	}
}

func TestEvent_Valid(t *testing.T) {
	res := Event(validFields())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestEvent_EndTimeOrdering(t *testing.T) {
	f := validFields()
	f.StartTime = "10:00"

	f.EndTime = "09:00"
	res := Event(f)
	assert.False(t, res.Valid)
	assert.Equal(t, "End time must be after start time", res.Errors[FieldEndTime])

	f.EndTime = "10:00"
	assert.Contains(t, Event(f).Errors, FieldEndTime)

	f.EndTime = "10:01"
	assert.True(t, Event(f).Valid)
}

func TestEvent_Title(t *testing.T) {
	f := validFields()

	f.Title = "   "
	assert.Equal(t, "Title is required", Event(f).Errors[FieldTitle])

	f.Title = strings.Repeat("a", 100)
	assert.True(t, Event(f).Valid)

	f.Title = strings.Repeat("a", 101)
	assert.Contains(t, Event(f).Errors, FieldTitle)

	// Length is counted in characters, not bytes.
	f.Title = strings.Repeat("일", 100)
	assert.True(t, Event(f).Valid)
}

func TestEvent_Description(t *testing.T) {
	f := validFields()
	f.Description = ""
	assert.True(t, Event(f).Valid)

	f.Description = strings.Repeat("d", 501)
	assert.Contains(t, Event(f).Errors, FieldDescription)
}

func TestEvent_DateAndTimes(t *testing.T) {
	f := validFields()
	f.Date = ""
	f.StartTime = ""
	f.EndTime = "24:00"
	res := Event(f)

	assert.Equal(t, "Date is required", res.Errors[FieldDate])
	assert.Equal(t, "Start time is required", res.Errors[FieldStartTime])
	assert.Equal(t, "Valid end time is required", res.Errors[FieldEndTime])

	f = validFields()
	f.Date = "2023-02-29"
	assert.Equal(t, "Valid date is required", Event(f).Errors[FieldDate])
}

func TestEvent_InvalidStartDoesNotBlameEnd(t *testing.T) {
	f := validFields()
	f.StartTime = "7am"
	res := Event(f)
	assert.Contains(t, res.Errors, FieldStartTime)
	assert.NotContains(t, res.Errors, FieldEndTime)
}

func TestEvent_Color(t *testing.T) {
	f := validFields()
	for _, c := range []string{"", "#fff", "#A1B2C3"} {
		f.Color = c
		assert.True(t, Event(f).Valid, "color %q", c)
	}
	for _, c := range []string{"fff", "#ffff", "#GGGGGG", "red"} {
		f.Color = c
		assert.Contains(t, Event(f).Errors, FieldColor, "color %q", c)
	}
}

func TestEvent_ReportsAllFieldsAtOnce(t *testing.T) {
	res := Event(model.Fields{
		Description: strings.Repeat("x", 600),
		Date:        "tomorrow",
		StartTime:   "10:00",
		EndTime:     "09:00",
		Color:       "blue",
	})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 5)
	for _, field := range []string{FieldTitle, FieldDescription, FieldDate, FieldEndTime, FieldColor} {
		assert.Contains(t, res.Errors, field)
	}
}

func TestEvent_KeysAreJSONFieldNames(t *testing.T) {
	res := Event(model.Fields{})
	assert.Equal(t, map[string]string{
		FieldTitle:     "Title is required",
		FieldDate:      "Date is required",
		FieldStartTime: "Start time is required",
		FieldEndTime:   "End time is required",
	}, res.Errors)
}

func TestEvent_OneReasonPerField(t *testing.T) {
	f := validFields()
	f.Title = strings.Repeat(" ", 101)
	res := Event(f)
	assert.Len(t, res.Errors, 1)
	assert.Equal(t, "Title must be at most 100 characters", res.Errors[FieldTitle])
}

func TestIsHexColor(t *testing.T) {
	for _, c := range []string{"#fff", "#FFF", "#4CAF50"} {
		assert.True(t, IsHexColor(c), c)
	}
	for _, c := range []string{"", "#ffff", "#4CAF5080", "turquoise", "4CAF50"} {
		assert.False(t, IsHexColor(c), c)
	}
}

// Package validation turns raw incoming items into normalized professionals. A raw item is a
// decoded JSON object (numbers as json.Number) or YAML mapping.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
)

const (
	msgRequired    = "This field is required."
	msgNull        = "This field may not be null."
	msgBlank       = "This field may not be blank."
	msgNotString   = "Not a valid string."
	msgEmail       = "Enter a valid email address."
	msgMaxLength   = "Ensure this field has no more than %s characters."
	msgNotAnObject = "Invalid data. Expected a dictionary, but got %s."
)

// shape carries the string fields through the struct tag rules.
type shape struct {
	FullName    string `json:"full_name"    validate:"max=255"`
	Email       string `json:"email"        validate:"omitempty,email,max=254"`
	Phone       string `json:"phone"        validate:"max=20"`
	CompanyName string `json:"company_name" validate:"max=255"`
	JobTitle    string `json:"job_title"    validate:"max=255"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateItem validates one element of a bulk payload, which may be of any JSON type.
func ValidateItem(item interface{}) (model.Normalized, model.FieldErrors) {
	raw, ok := item.(map[string]interface{})
	if !ok {
		errs := model.FieldErrors{}
		errs.Add(model.FormErrorsKey, fmt.Sprintf(msgNotAnObject, typeName(item)))
		return model.Normalized{}, errs
	}
	return Validate(raw)
}

// Validate checks a raw item and returns the normalized record. On failure the returned errors
// are non-empty and hold every problem found, keyed by field name or model.FormErrorsKey.
func Validate(raw map[string]interface{}) (model.Normalized, model.FieldErrors) {
	errs := model.FieldErrors{}
	n := model.Normalized{Supplied: map[string]bool{}}
	var s shape

	// full_name: required, not blank; whitespace is kept as it is.
	if v, present := raw[model.FieldFullName]; !present {
		errs.Add(model.FieldFullName, msgRequired)
	} else if v == nil {
		errs.Add(model.FieldFullName, msgNull)
	} else if str, ok := stringValue(v); !ok {
		errs.Add(model.FieldFullName, msgNotString)
	} else if str == "" {
		errs.Add(model.FieldFullName, msgBlank)
	} else {
		n.FullName, s.FullName = str, str
		n.Supplied[model.FieldFullName] = true
	}

	// email and phone: null and "" both mean "absent".
	n.Email = optionalContact(raw, model.FieldEmail, n.Supplied, errs)
	n.Phone = optionalContact(raw, model.FieldPhone, n.Supplied, errs)
	if n.Email != nil {
		s.Email = *n.Email
	}
	if n.Phone != nil {
		s.Phone = *n.Phone
	}

	n.CompanyName = optionalText(raw, model.FieldCompanyName, n.Supplied, errs)
	n.JobTitle = optionalText(raw, model.FieldJobTitle, n.Supplied, errs)
	s.CompanyName, s.JobTitle = n.CompanyName, n.JobTitle

	// source: one of the closed set.
	if v, present := raw[model.FieldSource]; !present {
		errs.Add(model.FieldSource, msgRequired)
	} else if v == nil {
		errs.Add(model.FieldSource, msgNull)
	} else {
		str, ok := stringValue(v)
		if !ok {
			str = fmt.Sprint(v)
		}
		if source, err := model.ParseSource(str); err != nil {
			errs.Add(model.FieldSource, err.Error())
		} else {
			n.Source = source
			n.Supplied[model.FieldSource] = true
		}
	}

	if err := validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs.Add(fe.Field(), message(fe))
			}
		} else {
			errs.Add(model.FormErrorsKey, err.Error())
		}
	}

	// The cross-field rule only makes sense when both channels were readable.
	_, emailErr := errs[model.FieldEmail]
	_, phoneErr := errs[model.FieldPhone]
	if !emailErr && !phoneErr && n.Email == nil && n.Phone == nil {
		errs.Add(model.FormErrorsKey, model.MissingContactMessage)
	}

	if !errs.Empty() {
		return model.Normalized{}, errs
	}
	return n, nil
}

// optionalContact reads email or phone. The result is nil when the value is missing, null or "".
func optionalContact(raw map[string]interface{}, field string, supplied map[string]bool, errs model.FieldErrors) *string {
	v, present := raw[field]
	if !present {
		return nil
	}
	if v == nil {
		supplied[field] = true
		return nil
	}
	str, ok := stringValue(v)
	if !ok {
		errs.Add(field, msgNotString)
		return nil
	}
	supplied[field] = true
	if str == "" {
		return nil
	}
	return &str
}

// optionalText reads a free text field that defaults to "".
func optionalText(raw map[string]interface{}, field string, supplied map[string]bool, errs model.FieldErrors) string {
	v, present := raw[field]
	if !present {
		return ""
	}
	if v == nil {
		errs.Add(field, msgNull)
		return ""
	}
	str, ok := stringValue(v)
	if !ok {
		errs.Add(field, msgNotString)
		return ""
	}
	supplied[field] = true
	return str
}

// stringValue accepts strings and numbers; numbers are used with their literal text.
func stringValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return msgEmail
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "list"
	case string:
		return "str"
	case bool:
		return "bool"
	case json.Number, int, int64, uint64, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

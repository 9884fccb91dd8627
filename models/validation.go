package models

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// ErrInvalidInput is matched by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	finiteTag  = "finite"
	finiteText = "{0} must be a finite number"
)

func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	registerCustomTranslation(notBlankTag, notBlankText)

	Validate.RegisterStructValidation(markStructValidation, Mark{})
	registerCustomTranslation(finiteTag, finiteText)
}

// registerCustomTranslation registers a custom translation for the specified validation tag.
func registerCustomTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

func (err *ValidationError) Error() string {
	if len(err.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fld := range err.Fields {
		msgs = append(msgs, fld.Error)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(msgs, "; ")
}

func (err *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// validateStruct runs the validator and converts its errors to a *ValidationError.
func validateStruct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return NewValidationError(flds...)
}

// CleanString trims all leading and trailing white space in `s`.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// markStructValidation rejects NaN and infinite scores, which slip through the numeric range tags.
func markStructValidation(sl validator.StructLevel) {
	m, ok := sl.Current().Interface().(Mark)
	if !ok {
		return
	}
	if math.IsNaN(m.MarksObtained) || math.IsInf(m.MarksObtained, 0) {
		sl.ReportError(m.MarksObtained, "marksObtained", "MarksObtained", finiteTag, "")
	}
	if math.IsNaN(m.MaxMarks) || math.IsInf(m.MaxMarks, 0) {
		sl.ReportError(m.MaxMarks, "maxMarks", "MaxMarks", finiteTag, "")
	}
}

// Package validation wraps go-playground/validator with English messages
// keyed by form field name.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"sitecooking/pkg/response"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func New() (*Validator, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	if err := validate.RegisterTranslation("slug", trans,
		func(t ut.Translator) error {
			return t.Add("slug", "{0} may contain only letters, numbers, underscores or hyphens", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("slug", fe.Field())
			return msg
		},
	); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct returns nil when s is valid. Otherwise each failing field gets its
// translated message.
func (v *Validator) Struct(s interface{}) response.FieldErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := response.FieldErrors{}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fields.Add("__all__", err.Error())
		return fields
	}

	for _, fe := range validationErrs {
		name := fe.Field()
		if i := strings.IndexByte(name, '['); i > 0 {
			name = name[:i]
		}
		fields.Add(name, fe.Translate(v.trans))
	}
	return fields
}

func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

package quiz

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-lms/core"
)

var (
	options4Tag  = "options4"
	options4Text = "a question needs exactly 4 non-blank options"
)

// InitValidators registers the quiz validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(options4Tag, options4Validation)
	core.RegisterCustomTranslation(validate, translator, options4Tag, options4Text)
}

func options4Validation(fl validator.FieldLevel) bool {
	opts, ok := fl.Field().Interface().([]string)
	if !ok || len(opts) != NumOptions {
		return false
	}
	for _, opt := range opts {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return true
}

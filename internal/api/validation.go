package api

import (
	"errors"  // Error inspection
	"reflect" // Struct tag lookup
	"regexp"  // Regular expressions
	"strings" // String manipulation

	"figo_wallet/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin/binding"       // Gin's validator hook
	"github.com/go-playground/validator/v10" // Struct validation
)

// companyPattern allows 3-50 letters, digits, spaces, dots, dashes and underscores
var companyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]{2,49}$`)

// RegisterValidators installs the custom tags and reports fields by their JSON name
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("company", func(fl validator.FieldLevel) bool {
		return companyPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

// bindError turns a binding failure into a 400 with a readable message
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Validation("Invalid request body!")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.Validation(strings.Join(msgs, " "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please provide " + fe.Field() + "!"
	case "email":
		return "Please provide a valid email!"
	case "company":
		return "company must be 3-50 letters, digits, spaces, dots, dashes or underscores!"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters!"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters!"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param() + "!"
	default:
		return fe.Field() + " is invalid!"
	}
}

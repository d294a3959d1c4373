package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginForm struct {
	Username string `validate:"required" label:"username"`
	Password string `validate:"required" label:"password"`
}

type registerForm struct {
	Name     string `validate:"required" label:"name"`
	Username string `validate:"required" label:"username"`
	Email    string `validate:"required,email" label:"email"`
	Password string `validate:"required" label:"password"`
}

type searchForm struct {
	Class   string `validate:"required" label:"class"`
	Subject string `validate:"required" label:"subject"`
}

type uploadForm struct {
	Title   string `validate:"required" label:"title"`
	Class   string `validate:"required" label:"class"`
	Subject string `validate:"required" label:"subject"`
}

type commentForm struct {
	Text string `validate:"required,max=1000" label:"comment"`
}

type assignmentForm struct {
	Name    string `validate:"required" label:"name"`
	Class   string `validate:"required" label:"class"`
	Subject string `validate:"required" label:"subject"`
	Email   string `validate:"required,email" label:"email"`
}

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(f.Name)
	})
}

// validationMessage turns validator output into one sentence for the user.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Please check the form and try again."
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "email":
			invalid = append(invalid, "a valid "+fe.Field())
		case "max":
			invalid = append(invalid, fmt.Sprintf("a %s of at most %s characters", fe.Field(), fe.Param()))
		default:
			invalid = append(invalid, "a valid "+fe.Field())
		}
	}

	if len(missing) > 0 {
		return "Please fill in " + joinWords(missing) + "."
	}
	return "Please enter " + joinWords(invalid) + "."
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}

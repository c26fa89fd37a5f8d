package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldLabels = map[string]string{
	"Email":     "Email",
	"Password":  "Password",
	"FirstName": "First name",
	"LastName":  "Last name",
}

// validationMessage turns the first failed rule into a sentence for the form.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again."
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Please enter a valid email address."
	default:
		return label + " is invalid (" + strings.ToLower(fe.Tag()) + ")."
	}
}

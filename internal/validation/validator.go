package validation

import (
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for FormInput to ensure the amount
	// text parses to a positive number before any request is sent.
	v.RegisterStructValidation(formInputStructValidation, FormInput{})

	return v
}

func formInputStructValidation(sl validatorv10.StructLevel) {
	in := sl.Current().Interface().(FormInput)
	if in.Amount == "" {
		return // required tag already reports the empty case
	}
	n, err := strconv.ParseFloat(in.Amount, 64)
	if err != nil || n <= 0 {
		sl.ReportError(in.Amount, "amount", "Amount", "positive_number", "")
	}
}

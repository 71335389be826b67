package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// The gateway bills in whole cents; reject prices that lose precision in
	// the major-to-minor unit conversion.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	cents := req.Price * 100
	if math.Abs(cents-math.Round(cents)) > 1e-9 {
		sl.ReportError(req.Price, "price", "Price", "whole_cents",
			fmt.Sprintf("price %.4f is not a whole number of cents", req.Price))
	}
}

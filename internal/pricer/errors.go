package pricer

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedProduct       = errors.New("unsupported product")
	ErrMissingParameters        = errors.New("missing required parameters")
	ErrUnsupportedPricingMethod = errors.New("unsupported pricing method")
	ErrInvalidParameter         = errors.New("invalid parameter")
	ErrNonFinitePrice           = errors.New("non-finite price")
)

// MissingParamsError lists the required parameters absent from a request, sorted.
type MissingParamsError struct {
	Names []string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("missing required parameters %v", e.Names)
}

func (e *MissingParamsError) Is(target error) bool {
	return target == ErrMissingParameters
}

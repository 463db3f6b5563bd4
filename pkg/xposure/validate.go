package xposure

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedInput marks a dataset record the matching engine cannot process:
// a non-finite coordinate or timestamp. The run aborts rather than matching
// against partial records.
var ErrMalformedInput = errors.New("malformed input")

func newRecordValidator() *validator.Validate {
	v := validator.New()
	// The struct tags only need a finiteness rule: required fields are all
	// floats, so zero values are legitimate and "required" would reject them.
	must(v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateDatasets checks every record of both datasets before matching and
// reports the first offending record and field.
func ValidateDatasets(tracks []TrackPoint, sites []ExposureSite) error {
	v := newRecordValidator()
	for i, p := range tracks {
		if err := v.Struct(p); err != nil {
			return recordError("track point", i, err)
		}
	}
	for j, s := range sites {
		if err := v.Struct(s); err != nil {
			return recordError(fmt.Sprintf("exposure site %q", s.Name), j, err)
		}
	}
	return nil
}

func recordError(kind string, index int, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s %d: field %s is not finite", ErrMalformedInput, kind, index, verrs[0].Field())
	}
	return fmt.Errorf("%w: %s %d: %w", ErrMalformedInput, kind, index, err)
}

package controller

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// rangeParams holds the path segments of the stats routes.
type rangeParams struct {
	Station string `param:"station" validate:"omitempty,max=64"`
	Start   string `param:"start" validate:"required,datetime=2006-01-02"`
	End     string `param:"end" validate:"omitempty,datetime=2006-01-02"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("param")
	})
	return v
}

// parseRangeParams reads start, end and optionally station from the path.
// Dates are YYYY-MM-DD strings, so start <= end compares lexically.
func parseRangeParams(r *http.Request, withStation bool) (rangeParams, error) {
	p := rangeParams{
		Start: r.PathValue("start"),
		End:   r.PathValue("end"),
	}
	if withStation {
		p.Station = r.PathValue("station")
		if p.Station == "" {
			return rangeParams{}, errors.New("missing 'station'")
		}
	}

	if err := validate.Struct(p); err != nil {
		return rangeParams{}, describeValidation(err)
	}
	if p.End != "" && p.Start > p.End {
		return rangeParams{}, errors.New("'start' must be <= 'end'")
	}
	return p, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "datetime":
		return fmt.Errorf("invalid '%s' (expected YYYY-MM-DD)", fe.Field())
	case "required":
		return fmt.Errorf("missing '%s'", fe.Field())
	case "max":
		return fmt.Errorf("'%s' must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("invalid '%s'", fe.Field())
	}
}

package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/utafrali/contactsbook/pkg/validator"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds limit/offset paging extracted from a query string.
type Params struct {
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Limit: DefaultLimit, Offset: 0}
}

// FromRequest reads ?limit and ?offset. Missing values fall back to the
// defaults; non-numeric values are an input error and out-of-range values a
// *validator.ValidationError.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("limit must be an integer")
		}
		p.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("offset must be an integer")
		}
		p.Offset = v
	}

	if err := validator.Validate(p); err != nil {
		return Params{}, err
	}
	return p, nil
}

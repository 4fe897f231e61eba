package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Field names as used by the form and the JSON API.
const (
	FieldProduct   = "product"
	FieldBrand     = "brand"
	FieldPackaging = "packaging"
	FieldOrigin    = "origin"
)

// MinFieldLength is the shortest accepted value for every form field.
const MinFieldLength = 2

var fieldMessages = map[string]string{
	FieldProduct:   "Product name must be at least 2 characters.",
	FieldBrand:     "Brand name must be at least 2 characters.",
	FieldPackaging: "Packaging description must be at least 2 characters.",
	FieldOrigin:    "Origin must be at least 2 characters.",
}

// FieldErrors maps a field name to the message shown under it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// Is lets errors.Is match FieldErrors against ErrInvalidInput
func (f FieldErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate checks the four text fields. It returns nil when the request can be sent.
func (r Request) Validate() FieldErrors {
	errs := FieldErrors{}
	check := func(field, value string) {
		if utf8.RuneCountInString(value) < MinFieldLength {
			errs[field] = fieldMessages[field]
		}
	}
	check(FieldProduct, r.Product)
	check(FieldBrand, r.Brand)
	check(FieldPackaging, r.Packaging)
	check(FieldOrigin, r.Origin)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DefaultRequest holds the values the form is pre-filled with
func DefaultRequest() Request {
	return Request{
		Product:   "Oats",
		Brand:     "Quaker",
		Packaging: "Plastic-lined cardboard box",
		Origin:    "India",
	}
}

package analysis

import "github.com/tidwall/gjson"

// List is a sequence of display strings. When decoded from JSON it accepts a
// native array or a string that itself holds a JSON array; anything else
// decodes to an empty list.
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.String {
		*l = ParseList(res.String())
		return nil
	}
	*l = ParseList(string(data))
	return nil
}

// UnmarshalJSON accepts an object or a string holding a JSON object.
// Anything else becomes the empty placeholder.
func (a *Alternative) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.String {
		*a = ParseAlternative(res.String())
		return nil
	}
	*a = ParseAlternative(string(data))
	return nil
}

// ParseList decodes raw as a JSON array of values. Invalid JSON or a
// non-array value yields an empty list, never an error.
func ParseList(raw string) List {
	if !gjson.Valid(raw) {
		return nil
	}
	res := gjson.Parse(raw)
	if !res.IsArray() {
		return nil
	}

	var out List
	for _, item := range res.Array() {
		if item.Type == gjson.Null {
			continue
		}
		out = append(out, item.String())
	}
	return out
}

// ParseAlternative decodes raw as a JSON object with product, brand and
// reason. Invalid JSON or a non-object value yields the empty placeholder.
func ParseAlternative(raw string) Alternative {
	if !gjson.Valid(raw) {
		return Alternative{}
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return Alternative{}
	}
	return Alternative{
		Product: res.Get("product").String(),
		Brand:   res.Get("brand").String(),
		Reason:  res.Get("reason").String(),
	}
}

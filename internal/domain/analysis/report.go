package analysis

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/gjson"
)

const maxBodyInError = 512

// ParseReport checks that body is a JSON array of {"output": {...}} objects
// and decodes it. A single bare envelope is accepted as a report of one.
func ParseReport(body []byte) (Report, error) {
	if !gjson.ValidBytes(body) {
		return nil, goerr.Wrap(ErrMalformedResponse, "response body is not JSON",
			goerr.V("body", excerpt(body)))
	}

	root := gjson.ParseBytes(body)
	switch {
	case root.IsObject():
		if !root.Get("output").IsObject() {
			return nil, goerr.Wrap(ErrMalformedResponse, "response object has no output",
				goerr.V("body", excerpt(body)))
		}
		body = append(append([]byte("["), body...), ']')

	case root.IsArray():
		for i, item := range root.Array() {
			if !item.IsObject() || !item.Get("output").IsObject() {
				return nil, goerr.Wrap(ErrMalformedResponse, "report entry has no output",
					goerr.V("index", i))
			}
			score := item.Get("output.sustainability_score")
			if score.Exists() && score.Type != gjson.String && score.Type != gjson.Null {
				return nil, goerr.Wrap(ErrMalformedResponse, "sustainability_score is not a string",
					goerr.V("index", i))
			}
		}

	default:
		return nil, goerr.Wrap(ErrMalformedResponse, "response is neither an array nor an object",
			goerr.V("body", excerpt(body)))
	}

	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, goerr.Wrap(ErrMalformedResponse, "failed to decode report",
			goerr.V("cause", err.Error()))
	}
	return report, nil
}

func excerpt(b []byte) string {
	if len(b) > maxBodyInError {
		return string(b[:maxBodyInError]) + "..."
	}
	return string(b)
}

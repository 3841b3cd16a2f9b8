package checker

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

func expectStatus(resp *Response, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	if len(want) == 1 {
		return failf(KindStatus, "expected status %d, got %d", want[0], resp.StatusCode)
	}
	return failf(KindStatus, "expected status in %v, got %d", want, resp.StatusCode)
}

func parseJSON(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, failf(KindDecode, "response is not valid JSON")
	}
	return gjson.ParseBytes(body), nil
}

func parseObject(body []byte) (gjson.Result, error) {
	doc, err := parseJSON(body)
	if err != nil {
		return doc, err
	}
	if !doc.IsObject() {
		return doc, failf(KindDecode, "expected a JSON object, got %s", describe(doc))
	}
	return doc, nil
}

func parseArray(body []byte) (gjson.Result, error) {
	doc, err := parseJSON(body)
	if err != nil {
		return doc, err
	}
	if !doc.IsArray() {
		return doc, failf(KindDecode, "expected a JSON array, got %s", describe(doc))
	}
	return doc, nil
}

func describe(doc gjson.Result) string {
	switch {
	case doc.IsObject():
		return "object"
	case doc.IsArray():
		return "array"
	default:
		return strings.ToLower(doc.Type.String())
	}
}

// missingFields returns the fields absent from obj. Field names are gjson
// paths, so "meta.created" reaches into nested objects.
func missingFields(obj gjson.Result, fields []string) []string {
	var missing []string
	for _, f := range fields {
		if !obj.Get(f).Exists() {
			missing = append(missing, f)
		}
	}
	return missing
}

func requireFields(obj gjson.Result, fields []string) error {
	if missing := missingFields(obj, fields); len(missing) > 0 {
		return failf(KindField, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func hasHeader(h http.Header, name string) bool {
	return len(h.Values(name)) > 0
}

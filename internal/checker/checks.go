package checker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Check names, in execution order.
const (
	CheckRoot          = "root_endpoint"
	CheckCreate        = "post_status"
	CheckList          = "get_status"
	CheckCORS          = "cors"
	CheckErrorHandling = "error_handling"
	CheckPersistence   = "mongodb_connection"
)

const (
	rootPath        = "/"
	statusPath      = "/status"
	nonexistentPath = "/nonexistent"
)

// Outcome is what a passing check reports back.
type Outcome struct {
	Detail string
	// ID is set by checks that create a record.
	ID string
}

// Check is one request/response scenario.
type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context, c *Checker) (Outcome, error)
}

// Checks returns every check in execution order.
func Checks() []Check {
	return []Check{
		{Name: CheckRoot, Description: "GET / returns the greeting", Run: checkRoot},
		{Name: CheckCreate, Description: "POST /status creates a record", Run: checkCreate},
		{Name: CheckList, Description: "GET /status lists records", Run: checkList},
		{Name: CheckCORS, Description: "OPTIONS /status answers the CORS preflight", Run: checkCORS},
		{Name: CheckErrorHandling, Description: "invalid POST /status is rejected", Run: checkErrorHandling},
		{Name: CheckPersistence, Description: "a created record is listed", Run: checkPersistence},
	}
}

// Names returns every check name in execution order.
func Names() []string {
	all := Checks()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

func checkRoot(ctx context.Context, c *Checker) (Outcome, error) {
	resp, err := c.client.Do(ctx, http.MethodGet, rootPath, nil, nil)
	if err != nil {
		return Outcome{}, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return Outcome{}, err
	}
	doc, err := parseObject(resp.Body)
	if err != nil {
		return Outcome{}, err
	}

	msg := doc.Get("message")
	if !msg.Exists() {
		return Outcome{}, failf(KindField, "missing required fields: message")
	}
	if msg.String() != c.opts.Greeting {
		return Outcome{}, failf(KindMismatch, "unexpected message %q, want %q", msg.String(), c.opts.Greeting)
	}
	return Outcome{Detail: fmt.Sprintf("message %q", msg.String())}, nil
}

func checkCreate(ctx context.Context, c *Checker) (Outcome, error) {
	name := c.opts.ClientName
	resp, err := c.postStatus(ctx, name)
	if err != nil {
		return Outcome{}, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return Outcome{}, err
	}
	doc, err := parseObject(resp.Body)
	if err != nil {
		return Outcome{}, err
	}
	if err := requireFields(doc, c.opts.RequiredFields); err != nil {
		return Outcome{}, err
	}

	got := doc.Get("client_name")
	if !got.Exists() {
		return Outcome{}, failf(KindField, "missing required fields: client_name")
	}
	if got.Type != gjson.String || got.Str != name {
		return Outcome{}, failf(KindMismatch, "client_name %s, want %q", got.Raw, name)
	}

	id := doc.Get("id").String()
	return Outcome{Detail: fmt.Sprintf("created %s", id), ID: id}, nil
}

func checkList(ctx context.Context, c *Checker) (Outcome, error) {
	resp, err := c.client.Do(ctx, http.MethodGet, statusPath, nil, nil)
	if err != nil {
		return Outcome{}, err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return Outcome{}, err
	}
	doc, err := parseArray(resp.Body)
	if err != nil {
		return Outcome{}, err
	}

	items := doc.Array()
	if len(items) == 0 {
		return Outcome{Detail: "found 0 status checks (empty list)"}, nil
	}
	if !items[0].IsObject() {
		return Outcome{}, failf(KindDecode, "expected list items to be objects, got %s", describe(items[0]))
	}
	if err := requireFields(items[0], c.opts.RequiredFields); err != nil {
		return Outcome{}, err
	}
	return Outcome{Detail: fmt.Sprintf("found %d status checks", len(items))}, nil
}

func checkCORS(ctx context.Context, c *Checker) (Outcome, error) {
	header := http.Header{}
	header.Set("Origin", c.opts.Origin)
	header.Set("Access-Control-Request-Method", http.MethodPost)
	header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := c.client.Do(ctx, http.MethodOptions, statusPath, nil, header)
	if err != nil {
		return Outcome{}, err
	}
	c.logger.Debug("preflight answered", "status", resp.StatusCode)

	if !hasHeader(resp.Header, "Access-Control-Allow-Origin") {
		return Outcome{}, failf(KindHeader, "Access-Control-Allow-Origin not set (status %d)", resp.StatusCode)
	}
	return Outcome{Detail: "allow-origin " + resp.Header.Get("Access-Control-Allow-Origin")}, nil
}

func checkErrorHandling(ctx context.Context, c *Checker) (Outcome, error) {
	resp, err := c.client.Do(ctx, http.MethodGet, nonexistentPath, nil, nil)
	if err != nil {
		return Outcome{}, err
	}
	c.logger.Info("invalid endpoint answered", "path", nonexistentPath, "status", resp.StatusCode)

	resp, err = c.client.Do(ctx, http.MethodPost, statusPath, map[string]string{"invalid_field": "test"}, nil)
	if err != nil {
		return Outcome{}, err
	}
	if err := expectStatus(resp, http.StatusBadRequest, http.StatusUnprocessableEntity); err != nil {
		return Outcome{}, err
	}
	return Outcome{Detail: fmt.Sprintf("invalid body rejected with %d", resp.StatusCode)}, nil
}

func checkPersistence(ctx context.Context, c *Checker) (Outcome, error) {
	resp, err := c.postStatus(ctx, c.opts.PersistenceClientName)
	if err != nil {
		return Outcome{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, failf(KindStatus, "create failed with status %d", resp.StatusCode)
	}
	created, err := parseObject(resp.Body)
	if err != nil {
		return Outcome{}, err
	}
	id := created.Get("id")
	if !id.Exists() {
		return Outcome{}, failf(KindField, "create response has no id")
	}
	if !usableID(id) {
		return Outcome{}, failf(KindField, "create response id %s is not usable", id.Raw)
	}

	resp, err = c.client.Do(ctx, http.MethodGet, statusPath, nil, nil)
	if err != nil {
		return Outcome{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, failf(KindStatus, "list failed with status %d", resp.StatusCode)
	}
	list, err := parseArray(resp.Body)
	if err != nil {
		return Outcome{}, err
	}

	items := list.Array()
	for i, item := range items {
		got := item.Get("id")
		if !got.Exists() {
			return Outcome{ID: id.String()}, failf(KindField, "listed record %d has no id", i)
		}
		if sameJSONValue(got, id) {
			return Outcome{Detail: fmt.Sprintf("record %s persisted", id.String()), ID: id.String()}, nil
		}
	}
	return Outcome{ID: id.String()}, failf(KindMismatch, "created record %s not found among %d listed", id.String(), len(items))
}

func (c *Checker) postStatus(ctx context.Context, clientName string) (*Response, error) {
	return c.client.Do(ctx, http.MethodPost, statusPath, map[string]string{"client_name": clientName}, nil)
}

// usableID rejects ids that would compare equal to a missing field: absent, null or "".
func usableID(id gjson.Result) bool {
	switch id.Type {
	case gjson.String:
		return id.Str != ""
	case gjson.Number:
		return true
	default:
		return false
	}
}

// sameJSONValue compares by JSON type and value, so 42 never matches "42".
func sameJSONValue(a, b gjson.Result) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == gjson.String {
		return a.Str == b.Str
	}
	return a.Raw == b.Raw
}

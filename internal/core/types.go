// Package core provides the status record types and API errors shared by the reference service.
package core

import (
	"strings"
	"time"
)

// StatusCheck is a persisted status record.
type StatusCheck struct {
	ID         string    `json:"id" bson:"_id"`
	ClientName string    `json:"client_name" bson:"client_name"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// StatusCheckCreate is the body of POST /status.
// ClientName is a pointer so a missing field can be told apart from an empty one.
type StatusCheckCreate struct {
	ClientName *string `json:"client_name"`
}

// Validate reports why the request cannot create a record.
func (r *StatusCheckCreate) Validate() error {
	if r.ClientName == nil {
		return NewValidationError("client_name", "field required")
	}
	if strings.TrimSpace(*r.ClientName) == "" {
		return NewValidationError("client_name", "must not be empty")
	}
	return nil
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string `json:"message"`
}

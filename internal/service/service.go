// Package service contains the business rules of the API.
//
// THE LAYERS:
//
//	Handler (HTTP)     → decodes requests, writes responses
//	Service (this)     → validates input, applies rules, logs business events
//	Repository (data)  → reads and writes rows
//
// Services accept plain Go values and return domain errors from apperror, so
// the same rules apply whether they are called from an HTTP handler, the
// operator CLI or the snapshot job. They depend on repository interfaces,
// never on a concrete store; the tests pass in-memory fakes.
package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
)

// UpdateResult describes the outcome of a partial update that succeeded.
// Updated is false when the payload had no recognised field or every value
// already matched the stored row.
type UpdateResult struct {
	Updated bool   `json:"updated"`
	Message string `json:"message"`
}

const (
	msgNoFields  = "No fields to update"
	msgNoChanges = "No changes made"
)

func noFieldsResult() UpdateResult {
	return UpdateResult{Message: msgNoFields}
}

func updatedResult(changed bool, resource string) UpdateResult {
	if !changed {
		return UpdateResult{Message: msgNoChanges}
	}
	return UpdateResult{Updated: true, Message: resource + " updated successfully"}
}

// clock is overridden in tests to pin "today".
type clock func() time.Time

func (c clock) today() model.Date {
	if c == nil {
		return model.NewDate(time.Now().UTC())
	}
	return model.NewDate(c().UTC())
}

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed(field, field+" must be a positive integer")
	}
	return nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// trimmedPtr trims *s in place and reports whether it is still non-empty.
func trimmedPtr(s *string) bool {
	*s = strings.TrimSpace(*s)
	return *s != ""
}

func checkRange(from, to *model.Date, field string) error {
	if from != nil && to != nil && from.After(to.Time) {
		return apperror.ValidationFailed(field, field+": start date is after end date")
	}
	return nil
}

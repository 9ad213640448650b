package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/model"
)

// maxBodyBytes caps request bodies; the largest payload is a meal log with
// its nutrients.
const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object from the body into dst. Malformed JSON
// becomes a validation error so the caller answers 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body must be a JSON object")
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}

// Optional tells a field that was omitted apart from one sent as null.
// Set is true whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return id, nil
}

func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// queryInt returns nil when the parameter is absent or empty.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := queryString(r, name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := queryString(r, name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

// requiredInt64 is queryInt64 for parameters the endpoint cannot do
// without.
func requiredInt64(r *http.Request, name string) (int64, error) {
	v, err := queryInt64(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperror.ValidationFailed(name, name+" parameter is required")
	}
	return *v, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := queryString(r, name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be true or false", name))
	}
	return &v, nil
}

// queryDate parses an optional YYYY-MM-DD parameter.
func queryDate(r *http.Request, name string) (*model.Date, error) {
	raw := queryString(r, name)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", name))
	}
	return &d, nil
}

func queryDateRange(r *http.Request, fromName, toName string) (from, to *model.Date, err error) {
	if from, err = queryDate(r, fromName); err != nil {
		return nil, nil, err
	}
	if to, err = queryDate(r, toName); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

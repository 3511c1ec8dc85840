// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// date-range bodies and queries, plus method checks.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"centrefunds/internal/core"
)

// maxBodyBytes caps request bodies; range requests are a few dozen bytes.
const maxBodyBytes = 64 << 10

var (
	errBodyTooLarge = errors.New("request body too large")
	errInvalidBody  = errors.New("invalid request body")
)

// RequestBodyParser handles JSON and form-encoded request bodies.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(trimmed, "{") || strings.Contains(p.contentType, "json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: %v", errInvalidBody, err)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errInvalidBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseRangeBody reads {"startDate","endDate"} from a JSON or form body.
func ParseRangeBody(r *http.Request) (core.DateRange, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.DateRange{}, err
	}
	return parseRange(p.Get("startDate"), p.Get("endDate"))
}

// ParseRangeQuery reads start and end from query parameters.
func ParseRangeQuery(query url.Values) (core.DateRange, error) {
	return parseRange(sanitizeInput(query.Get("start")), sanitizeInput(query.Get("end")))
}

func parseRange(start, end string) (core.DateRange, error) {
	if start == "" || end == "" {
		return core.DateRange{}, fmt.Errorf("%w: start and end dates are required", core.ErrInvalidDateRange)
	}
	return core.ParseDayRange(start, end)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

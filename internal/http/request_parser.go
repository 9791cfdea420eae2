// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing HTTP request data. Page and
// partial handlers read sidebar inputs from the query string, while the JSON
// API accepts JSON or form-encoded bodies. Both are read through the same
// valueSource interface so that input parsing is written once.

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes bounds request bodies; dashboard inputs are a few hundred bytes.
const maxBodyBytes = 64 << 10

// valueSource is a read-only view over request parameters.
type valueSource interface {
	// Get returns the first value for key, trimmed and sanitized.
	Get(key string) string
	// GetList returns every value for key in order.
	GetList(key string) []string
	// Has reports whether key was supplied at all, even empty.
	Has(key string) bool
}

// queryValues adapts url.Values to valueSource.
type queryValues url.Values

func (q queryValues) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(url.Values(q).Get(key)))
}

func (q queryValues) GetList(key string) []string {
	raw := url.Values(q)[key]
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.TrimSpace(sanitizeInput(v))
	}
	return out
}

func (q queryValues) Has(key string) bool {
	_, ok := url.Values(q)[key]
	return ok
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
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

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if trimmed[0] == '{' {
		// UseNumber keeps amounts exact instead of rounding through float64
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetList returns every value for key. JSON arrays are flattened element by
// element; a JSON scalar yields a single value.
func (p *RequestBodyParser) GetList(key string) []string {
	if p.jsonData != nil {
		val, ok := p.jsonData[key]
		if !ok {
			return nil
		}
		items, isList := val.([]interface{})
		if !isList {
			return []string{strings.TrimSpace(sanitizeInput(stringValue(val)))}
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = strings.TrimSpace(sanitizeInput(stringValue(item)))
		}
		return out
	}
	if p.formData != nil {
		return queryValues(p.formData).GetList(key)
	}
	return nil
}

// Has reports whether key is present in the parsed data.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []interface{}:
		// A list where a scalar was expected is joined, so "contributions"
		// may be sent as [100, 200] as well as "100, 200".
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringValue(item)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// ParseBodyOrFail parses the request body and returns an error response on failure.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Invalid request format")
	}
	return p, nil
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	headerAuthorKey = "X-Author-Key"
	maxBodyBytes    = 64 << 10
)

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a JSON object or form-encoded body into a field
// map. JSON numbers are kept as json.Number so amounts do not lose digits.
type RequestBodyParser struct {
	body        []byte
	contentType string
	fields      map[string]any
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, capped at maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. JSON is chosen by content type or by a leading
// brace; anything else is parsed as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		p.err = fmt.Errorf("%w: %w", errMalformedBody, p.err)
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.fields = map[string]any{}
		return nil
	}

	if strings.Contains(p.contentType, "json") || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			p.err = fmt.Errorf("%w: %w", errMalformedBody, err)
			return p.err
		}
		if fields == nil {
			fields = map[string]any{}
		}
		p.fields = sanitizeFields(fields)
		return nil
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: %w", errMalformedBody, err)
		return p.err
	}
	p.fields = make(map[string]any, len(form))
	for k := range form {
		p.fields[k] = sanitizeInput(form.Get(k))
	}
	return nil
}

// Fields returns the decoded field map; Parse must have succeeded.
func (p *RequestBodyParser) Fields() map[string]any {
	return p.fields
}

// Get returns a field as trimmed text.
func (p *RequestBodyParser) Get(key string) string {
	v, ok := p.fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func sanitizeFields(in map[string]any) map[string]any {
	for k, v := range in {
		if s, ok := v.(string); ok {
			in[k] = sanitizeInput(s)
		}
	}
	return in
}

// sanitizeInput strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// authorKey reads X-Author-Key, falling back to a bearer token.
func authorKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(headerAuthorKey)); k != "" {
		return k
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// queryInt parses a non-negative integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, v)
	}
	return n, nil
}

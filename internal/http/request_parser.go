package http

// Utilities for parsing and validating request data shared by the handlers.

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"orcamento/internal/core"
)

const maxFormBody = 1 << 20

var (
	errMissingItemID = errors.New("missing item id")
	errEmptyPatch    = errors.New("nothing to update")
)

// RequestBodyParser reads item edits sent either as JSON objects by API
// clients or as url-encoded forms by the page. Values are flattened to
// strings; JSON numbers keep their literal text so amounts are not rounded
// through float64.
type RequestBodyParser struct {
	contentType string
	body        []byte
	readErr     error

	done   bool
	json   bool
	values map[string]string
}

// NewRequestBodyParser reads up to 1 MiB of the request body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.readErr = io.ReadAll(io.LimitReader(r.Body, maxFormBody))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.done {
		return p.readErr
	}
	p.done = true
	p.values = map[string]string{}
	if p.readErr != nil || len(p.body) == 0 {
		return p.readErr
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.readErr = p.decodeJSON()
		return p.readErr
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		p.readErr = err
		return err
	}
	for k := range form {
		p.values[k] = form.Get(k)
	}
	return nil
}

func (p *RequestBodyParser) decodeJSON() error {
	dec := json.NewDecoder(bytes.NewReader(p.body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return err
	}
	p.json = true
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			p.values[k] = val
		case json.Number:
			p.values[k] = val.String()
		case bool:
			p.values[k] = strconv.FormatBool(val)
		default:
			// nested values and null count as sent but empty
			p.values[k] = ""
		}
	}
	return nil
}

// Has reports whether key was sent at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Get returns the sanitized value of key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.values[key])
}

func (p *RequestBodyParser) IsJSON() bool { return p.json }

// ParseItemPatch reads an item edit: the id plus any of quantity,
// description and unitPrice. Keys that were not sent stay untouched.
func ParseItemPatch(p *RequestBodyParser) (string, core.LineItemPatch, error) {
	var patch core.LineItemPatch

	id := p.Get("id")
	if id == "" {
		return "", patch, errMissingItemID
	}

	if p.Has("quantity") {
		q, err := core.ParseAmount(p.Get("quantity"))
		if err != nil {
			return id, patch, err
		}
		patch.Quantity = &q
	}
	if p.Has("unitPrice") {
		price, err := core.ParseAmount(p.Get("unitPrice"))
		if err != nil {
			return id, patch, err
		}
		patch.UnitPrice = &price
	}
	if p.Has("description") {
		d := p.Get("description")
		patch.Description = &d
	}

	if patch.IsEmpty() {
		return id, patch, errEmptyPatch
	}
	return id, patch, nil
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// ParseFormOrFail parses a form body of at most 1 MiB, answering 400 when
// it is malformed.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, maxFormBody)
	}
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de requisição inválido")
	}
	return nil
}

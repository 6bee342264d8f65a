// Package http serves the quote editor.
package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Client side events fired through HX-Trigger.
const (
	EventItemsChanged = "items:changed"
	EventProfileSaved = "profile:saved"
	EventShowMessage  = "show-notification"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// HTMXResponseBuilder collects the status, headers, client events and body
// of a fragment response. Nothing is sent until Write.
type HTMXResponseBuilder struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Trigger fires the client event name with data as its detail. A later
// call for the same event replaces the earlier detail.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.events[name] = data
	return b
}

func (b *HTMXResponseBuilder) TriggerItemsChanged(count int) *HTMXResponseBuilder {
	return b.Trigger(EventItemsChanged, map[string]int{"count": count})
}

// TriggerProfileSaved makes the quote section reload its company header.
func (b *HTMXResponseBuilder) TriggerProfileSaved() *HTMXResponseBuilder {
	return b.Trigger(EventProfileSaved, struct{}{})
}

func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventShowMessage, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Redirect asks HTMX to navigate the whole page to target.
func (b *HTMXResponseBuilder) Redirect(target string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", target)
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			dst.Set("HX-Trigger", asciiJSON(raw))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// asciiJSON escapes non-ASCII runes so the messages survive browsers that
// decode header values as Latin-1.
func asciiJSON(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		switch {
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&sb, `\u%04x`, r)
		}
	}
	return sb.String()
}

// ErrorResponse renders message as an alert fragment and raises the same
// message as an error notification.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		TriggerErrorNotification(message).
		BodyHTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError answers 405 with the Allow header set.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}

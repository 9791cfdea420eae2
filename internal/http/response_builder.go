package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMX events raised by the dashboard handlers.
const (
	eventSnapshotRecorded = "snapshot:recorded"
	eventNotification     = "show-notification"
)

// NotificationType selects the style of a toast shown by app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// HTMXResponseBuilder assembles a response: status, headers, HX-Trigger
// events and a body, written in one go by Write.
type HTMXResponseBuilder struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[string]any),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Header sets a response header.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) trigger(event string, detail any) *HTMXResponseBuilder {
	b.events[event] = detail
	return b
}

// TriggerSnapshotRecorded tells the snapshot table to reload.
func (b *HTMXResponseBuilder) TriggerSnapshotRecorded(ref string) *HTMXResponseBuilder {
	return b.trigger(eventSnapshotRecorded, map[string]string{"ref": ref})
}

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.trigger(eventNotification, map[string]any{
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

// BodyString sets a plain text body.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/plain; charset=utf-8")
	b.body = []byte(content)
	return b
}

// BodyHTML sets an already rendered HTML body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// BodyJSON encodes v as the body. An unencodable value turns the response
// into a 500.
func (b *HTMXResponseBuilder) BodyJSON(v any) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.status = http.StatusInternalServerError
		data = []byte(`{"error":"encoding failed"}`)
	}
	b.header.Set("Content-Type", "application/json")
	b.body = append(data, '\n')
	return b
}

// Write sends the response. Headers already on w are kept unless overridden.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.events) > 0 {
		if data, err := json.Marshal(b.events); err == nil {
			dst.Set("HX-Trigger", string(data))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, in the error box used by the partials.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError is returned for inputs that parse but cannot be used.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// JSONError answers API clients with {"error": message}.
func JSONError(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyJSON(map[string]string{"error": message})
}

// MethodNotAllowedError sets Allow to the accepted methods.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}

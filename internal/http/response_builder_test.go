package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_PlainText(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		BodyString("slow down").
		Write(w)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status code = %d, want 429", w.Code)
	}
	if w.Body.String() != "slow down" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerSnapshotRecorded("mem:3").
		TriggerSuccessNotification("Snapshot recorded").
		Write(w)

	var events map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if events[eventSnapshotRecorded]["ref"] != "mem:3" {
		t.Errorf("snapshot event = %v", events[eventSnapshotRecorded])
	}
	note := events[eventNotification]
	if note["type"] != "success" || note["message"] != "Snapshot recorded" || note["duration"] != float64(3000) {
		t.Errorf("notification = %v", note)
	}
}

func TestHTMXResponseBuilder_LastNotificationWins(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerSuccessNotification("first").
		TriggerErrorNotification("second").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if strings.Contains(trigger, "first") || !strings.Contains(trigger, `"type":"error"`) {
		t.Errorf("HX-Trigger = %s", trigger)
	}
	if !strings.Contains(trigger, `"duration":5000`) {
		t.Errorf("error toasts stay 5s: %s", trigger)
	}
}

func TestHTMXResponseBuilder_NoTriggerHeaderWithoutEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().BodyHTML("<p>ok</p>").Write(w)
	if _, ok := w.Header()["Hx-Trigger"]; ok {
		t.Error("HX-Trigger should be absent")
	}
}

func TestHTMXResponseBuilder_BodyJSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().BodyJSON(map[string]string{"net_worth": "3000"}).Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"net_worth":"3000"}` {
		t.Errorf("Body = %q", got)
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().BodyJSON(make(chan int)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unencodable value should give 500, got %d", w.Code)
	}
}

func TestHTMXResponseBuilder_KeepsExistingHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "abc")

	NewHTMXResponse().Header("Allow", "POST").Status(http.StatusCreated).Write(w)

	if w.Header().Get("X-Request-ID") != "abc" {
		t.Error("middleware headers must survive Write")
	}
	if w.Header().Get("Allow") != "POST" {
		t.Error("custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want 201", w.Code)
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(http.StatusUnprocessableEntity, `bad "assets"`).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"bad \"assets\""}` {
		t.Errorf("Body = %q", got)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid request format"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid request format</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Assets is not a valid number"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">Assets is not a valid number</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Error saving snapshot"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Error saving snapshot</div>`,
		},
		{
			name:       "escapes html",
			builder:    UnprocessableEntityError("<script>alert('x')</script>"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, HEAD").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("Allow header = %q", w.Header().Get("Allow"))
	}
}

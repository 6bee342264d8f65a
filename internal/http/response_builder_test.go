package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func triggers(t *testing.T, rr *httptest.ResponseRecorder) map[string]map[string]any {
	t.Helper()
	raw := rr.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	var events map[string]map[string]any
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not a JSON object: %v (%s)", err, raw)
	}
	return events
}

func TestHTMXResponse_PlainFragment(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHTMXResponse().BodyHTML("<tr></tr>").Write(rr)

	if rr.Code != http.StatusOK || rr.Body.String() != "<tr></tr>" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("HX-Trigger") != "" {
		t.Error("no events were fired, header should be absent")
	}
}

func TestHTMXResponse_Events(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerItemsChanged(3).
		TriggerProfileSaved().
		TriggerNotification(NotificationInfo, "primeira", 1000).
		TriggerSuccessNotification("Dados da empresa salvos.").
		Write(rr)

	ev := triggers(t, rr)
	if got := ev[EventItemsChanged]["count"]; got != float64(3) {
		t.Errorf("items:changed count = %v", got)
	}
	if _, ok := ev[EventProfileSaved]; !ok {
		t.Error("profile:saved missing")
	}
	// the last notification wins
	note := ev[EventShowMessage]
	if note["type"] != "success" || note["message"] != "Dados da empresa salvos." || note["duration"] != float64(3000) {
		t.Errorf("show-notification = %v", note)
	}
}

func TestHTMXResponse_TriggerHeaderIsASCII(t *testing.T) {
	msg := "Orçamento vazio 🙂"
	rr := httptest.NewRecorder()
	NewHTMXResponse().TriggerErrorNotification(msg).Write(rr)

	raw := rr.Header().Get("HX-Trigger")
	for i := 0; i < len(raw); i++ {
		if raw[i] >= 0x80 {
			t.Fatalf("byte %d of %q is not ASCII", i, raw)
		}
	}
	if got := triggers(t, rr)[EventShowMessage]["message"]; got != msg {
		t.Errorf("decoded message = %q, want %q", got, msg)
	}
}

func TestHTMXResponse_RedirectKeepsCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	http.SetCookie(rr, &http.Cookie{Name: sessionCookie, Value: "abc"})
	NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(rr)

	if rr.Code != http.StatusUnauthorized || rr.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("got %d, HX-Redirect %q", rr.Code, rr.Header().Get("HX-Redirect"))
	}
	if len(rr.Result().Cookies()) != 1 {
		t.Error("Set-Cookie written before the builder was dropped")
	}
}

func TestErrorFragments(t *testing.T) {
	tests := []struct {
		resp   *HTMXResponseBuilder
		status int
	}{
		{BadRequestError("Formato inválido"), http.StatusBadRequest},
		{UnprocessableEntityError("Formato inválido"), http.StatusUnprocessableEntity},
		{InternalServerError("Formato inválido"), http.StatusInternalServerError},
		{ErrorResponse(http.StatusBadGateway, "Formato inválido"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.resp.Write(rr)

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if want := `<div class="error" role="alert">Formato inválido</div>`; rr.Body.String() != want {
				t.Errorf("body = %q, want %q", rr.Body.String(), want)
			}
			if note := triggers(t, rr)[EventShowMessage]; note["type"] != "error" {
				t.Errorf("notification = %v, want an error", note)
			}
		})
	}
}

func TestErrorFragmentEscapesMarkup(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequestError(`<img src=x onerror="alert(1)">`).Write(rr)

	body := rr.Body.String()
	if strings.Contains(body, "<img") || !strings.Contains(body, "&lt;img") {
		t.Errorf("markup not escaped: %s", body)
	}
	// the notification carries the raw text; the client sets textContent
	if got := triggers(t, rr)[EventShowMessage]["message"]; got != `<img src=x onerror="alert(1)">` {
		t.Errorf("notification message = %q", got)
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	rr := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(rr)

	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "GET, POST" {
		t.Errorf("got %d, Allow %q", rr.Code, rr.Header().Get("Allow"))
	}
	if rr.Body.Len() != 0 {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

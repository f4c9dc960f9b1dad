package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockPrefRepo, *echo.Echo) {
	repo := newMockPrefRepo()
	return NewHandler(NewService(repo, 0, 0)), repo, echo.New()
}

func newOwnerContext(e *echo.Echo, method, body, ownerID, email string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	ctx := context.WithValue(req.Context(), auth.OwnerIDKey, ownerID)
	if email != "" {
		ctx = context.WithValue(ctx, auth.OwnerEmailKey, email)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_GetPreference_Defaults(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := newOwnerContext(e, http.MethodGet, "", "owner-1", "")
	if err := h.GetPreference(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var p Preference
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if p.Enabled || p.LeadTimeDays != DefaultLeadTimeDays {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestHandler_PutPreference(t *testing.T) {
	h, repo, e := newTestHandler()
	body := `{"enabled":true,"lead_time_days":14,"email":"me@example.com"}`
	c, rec := newOwnerContext(e, http.MethodPut, body, "owner-1", "")
	if err := h.PutPreference(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	stored := repo.store["owner-1"]
	if stored == nil || stored.LeadTimeDays != 14 || stored.Email != "me@example.com" {
		t.Errorf("preference not stored: %+v", stored)
	}
}

func TestHandler_PutPreference_EmailDefaultsToClaim(t *testing.T) {
	h, repo, e := newTestHandler()
	body := `{"enabled":true}`
	c, _ := newOwnerContext(e, http.MethodPut, body, "owner-1", "claim@example.com")
	if err := h.PutPreference(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored := repo.store["owner-1"]; stored == nil || stored.Email != "claim@example.com" {
		t.Errorf("expected email from token claim, got %+v", stored)
	}
}

func TestHandler_PutPreference_Invalid(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"enabled":true,"lead_time_days":365,"email":"me@example.com"}`
	c, _ := newOwnerContext(e, http.MethodPut, body, "owner-1", "")
	err := h.PutPreference(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_PutPreference_OwnerFromToken(t *testing.T) {
	h, repo, e := newTestHandler()
	body := `{"enabled":false,"owner_id":"spoofed"}`
	c, _ := newOwnerContext(e, http.MethodPut, body, "owner-1", "")
	if err := h.PutPreference(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.store["spoofed"]; ok {
		t.Error("owner_id from the body must be ignored")
	}
	if _, ok := repo.store["owner-1"]; !ok {
		t.Error("preference should be stored under the authenticated owner")
	}
}

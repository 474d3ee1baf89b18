package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
)

func newTestServer(t *testing.T, queue ImportQueue, ratePerMinute int) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	s := NewServer(":0", store, ingest.New(store), budget.NewEngine(store), queue, ratePerMinute)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, store
}

func doRequest(s *Server, method, target, owner string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingOwnerHeader(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	for _, target := range []string{
		"/api/accounts",
		"/api/budgets/progress",
		"/api/notifications/preview",
	} {
		rec := doRequest(s, http.MethodGet, target, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without owner = %d, want 401", target, rec.Code)
		}
	}
}

func TestListInstitutions(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodGet, "/api/institutions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Institutions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"institutions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Institutions) == 0 {
		t.Fatal("catalog must not be empty")
	}
	if resp.Institutions[0].ID == "" || resp.Institutions[0].Name == "" {
		t.Errorf("institution fields missing: %+v", resp.Institutions[0])
	}
}

func TestLinkThenImportInline(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodPost, "/api/institutions/demo-bank-001/link", "user-A", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("link status = %d, body %s", rec.Code, rec.Body.String())
	}

	var linked struct {
		Linked   int `json:"linked"`
		Accounts []struct {
			ID string `json:"id"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &linked); err != nil {
		t.Fatalf("decode link response: %v", err)
	}
	if linked.Linked == 0 {
		t.Fatal("link should create accounts")
	}

	// Relinking is a no-op.
	rec = doRequest(s, http.MethodPost, "/api/institutions/demo-bank-001/link", "user-A", "")
	var relinked struct {
		Linked int `json:"linked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &relinked); err != nil {
		t.Fatal(err)
	}
	if relinked.Linked != 0 {
		t.Errorf("relink created %d accounts, want 0", relinked.Linked)
	}

	rec = doRequest(s, http.MethodPost, "/api/accounts/"+linked.Accounts[0].ID+"/import", "user-A", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result ingest.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Imported == 0 {
		t.Errorf("inline import result = %+v", result)
	}
}

func TestImportUnknownAccount(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodPost, "/api/accounts/no-such/import", "user-A", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var result ingest.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Errors != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestImportBadWindow(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodPost, "/api/accounts/x/import", "user-A", `{"dateFrom":"01-06-2026"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

type fakeQueue struct {
	published []*amqp.ImportRequestMessage
}

func (q *fakeQueue) PublishImportRequest(_ context.Context, msg *amqp.ImportRequestMessage) error {
	q.published = append(q.published, msg)
	return nil
}

func TestImportQueued(t *testing.T) {
	queue := &fakeQueue{}
	s, _ := newTestServer(t, queue, 60)

	rec := doRequest(s, http.MethodPost, "/api/accounts/acct-1/import", "user-A", `{"dateFrom":"2026-06-01","dateTo":"2026-06-30"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(queue.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(queue.published))
	}
	msg := queue.published[0]
	if msg.OwnerID != "user-A" || msg.AccountID != "acct-1" || msg.DateFrom != "2026-06-01" {
		t.Errorf("message = %+v", msg)
	}
}

func TestImportRateLimited(t *testing.T) {
	s, _ := newTestServer(t, nil, 1)

	first := doRequest(s, http.MethodPost, "/api/accounts/no-such/import", "user-A", "")
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request must pass the limiter")
	}
	second := doRequest(s, http.MethodPost, "/api/accounts/no-such/import", "user-A", "")
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}

func TestSetBudgetAndProgress(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodPut, "/api/budgets", "user-A", `{"category":"Food","monthlyLimit":"450.00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodPut, "/api/budgets", "user-A", `{"category":"Food","monthlyLimit":"-1.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/budgets/progress", "user-A", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	var resp struct {
		Progress []budget.Progress `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Progress) != 1 {
		t.Fatalf("got %d progress rows, want 1", len(resp.Progress))
	}
	if resp.Progress[0].Status != budget.StatusOnTrack {
		t.Errorf("status = %q, want on_track with no spend", resp.Progress[0].Status)
	}
}

func TestNotificationsPreview(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodGet, "/api/notifications/preview", "user-A", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notifications) != 0 {
		t.Errorf("no budgets means no alerts, got %d", len(resp.Notifications))
	}
}

func TestDeleteAccount(t *testing.T) {
	s, _ := newTestServer(t, nil, 60)

	rec := doRequest(s, http.MethodPost, "/api/institutions/demo-bank-001/link", "user-A", "")
	var linked struct {
		Accounts []struct {
			ID string `json:"id"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &linked); err != nil || len(linked.Accounts) == 0 {
		t.Fatalf("link failed: %v body %s", err, rec.Body.String())
	}

	rec = doRequest(s, http.MethodDelete, "/api/accounts/"+linked.Accounts[0].ID, "user-A", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	// Deleting for the wrong owner is a 404, not a silent success.
	rec = doRequest(s, http.MethodDelete, "/api/accounts/"+linked.Accounts[1].ID, "user-B", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner delete status = %d, want 404", rec.Code)
	}
}

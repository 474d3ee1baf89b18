package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/notify"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
	"github.com/hydrUsD/betterbudgeter/internal/synth"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleListInstitutions returns the bank catalog. The catalog is static, so
// no owner identity is required.
func (s *Server) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"institutions": synth.Institutions(),
	})
}

func (s *Server) handleLinkInstitution(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}
	institutionID := r.PathValue("id")

	created, err := s.importer.LinkInstitution(r.Context(), owner, institutionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Link institution failed",
			"owner_id", owner,
			"institution_id", institutionID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "failed to link institution")
		return
	}
	s.accountsCache.Delete(owner)

	writeJSON(w, http.StatusOK, map[string]any{
		"institutionId": institutionID,
		"linked":        len(created),
		"accounts":      created,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}

	if accounts, hit := s.accountsCache.Get(owner); hit {
		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
		return
	}

	accounts, err := s.store.ListAccounts(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	s.accountsCache.Set(owner, accounts)
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}
	accountID := r.PathValue("id")

	if err := s.store.DeleteAccount(r.Context(), owner, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	s.accountsCache.Delete(owner)
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// handleImport either runs the pipeline inline or enqueues the job when a
// queue is configured. The endpoint is rate limited per client IP.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}
	if !s.rateLimiter.allow(extractClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "import rate limit exceeded")
		return
	}
	accountID := r.PathValue("id")

	var req importRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	from, err := parseOptionalDate(req.DateFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseOptionalDate(req.DateTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.queue != nil {
		msg := amqp.NewImportRequestMessage(owner, accountID, req.DateFrom, req.DateTo)
		if err := s.queue.PublishImportRequest(r.Context(), msg); err != nil {
			slog.ErrorContext(r.Context(), "Enqueue import failed",
				"owner_id", owner,
				"account_id", accountID,
				"error", err)
			writeError(w, http.StatusServiceUnavailable, "failed to enqueue import")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"queued":    true,
			"accountId": accountID,
		})
		return
	}

	result, err := s.importer.Import(r.Context(), owner, accountID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed",
			"owner_id", owner,
			"account_id", accountID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	s.accountsCache.Delete(owner)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}

	progress, err := s.engine.Progress(r.Context(), owner, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute budget progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

type setBudgetRequest struct {
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthlyLimit"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}

	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.MonthlyLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid monthly limit: "+err.Error())
		return
	}
	b := core.Budget{
		OwnerID:      owner,
		Category:     req.Category,
		MonthlyLimit: core.Money{Cents: cents},
	}
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SetBudget(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleNotificationsPreview composes the budget alerts the current progress
// would produce. Notifications are ephemeral views, never persisted.
func (s *Server) handleNotificationsPreview(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing X-Owner-ID header")
		return
	}

	progress, err := s.engine.Progress(r.Context(), owner, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute budget progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notify.FromBudgetCrossings(progress),
	})
}

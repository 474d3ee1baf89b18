// Package http exposes the JSON API: institution catalog, account linking,
// imports (inline or queued), budget progress, and notification previews.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
	"github.com/hydrUsD/betterbudgeter/internal/middleware/trace"
)

// Store is the slice of the persistence layer the handlers touch directly.
// Imports and budget math go through the importer and engine instead.
type Store interface {
	ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error)
	DeleteAccount(ctx context.Context, ownerID, id string) error
	SetBudget(ctx context.Context, b core.Budget) error
}

// ImportQueue publishes import jobs for asynchronous processing. A nil queue
// makes the import endpoint run the pipeline inline.
type ImportQueue interface {
	PublishImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error
}

type Server struct {
	http.Server
	store       Store
	importer    *ingest.Importer
	engine      *budget.Engine
	queue       ImportQueue
	rateLimiter *rateLimiter
	traceMW     *trace.Middleware
	startedAt   time.Time

	// Read-mostly payloads; link and delete invalidate per owner.
	accountsCache *lruCache[[]core.Account]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, importer *ingest.Importer, engine *budget.Engine, queue ImportQueue, importRatePerMinute int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:            store,
		importer:         importer,
		engine:           engine,
		queue:            queue,
		rateLimiter:      newRateLimiter(importRatePerMinute),
		traceMW:          trace.NewMiddleware(extractClientIP),
		startedAt:        time.Now(),
		accountsCache:    newLRUCache[[]core.Account](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}
	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.traceMW.Middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/institutions", s.handleListInstitutions)
	mux.HandleFunc("POST /api/institutions/{id}/link", s.handleLinkInstitution)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/{id}/import", s.handleImport)
	mux.HandleFunc("GET /api/budgets/progress", s.handleBudgetProgress)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)
	mux.HandleFunc("GET /api/notifications/preview", s.handleNotificationsPreview)

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.accountsCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// extractClientIP prefers X-Forwarded-For, falling back to the socket peer.
func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

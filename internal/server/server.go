package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/homebase/internal/chore"
	"github.com/dukerupert/homebase/internal/config"
	"github.com/dukerupert/homebase/internal/handler"
	"github.com/dukerupert/homebase/internal/ledger"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/middleware"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/push"
	"github.com/dukerupert/homebase/internal/store"
	ws "github.com/dukerupert/homebase/internal/websocket"
)

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	metrics     *metrics.Metrics
	families    *store.FamilyStore
	choreH      *handler.ChoreHandler
	gameH       *handler.GamificationHandler
	memberH     *handler.MemberHandler
	rewardH     *handler.RewardHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires stores, services and handlers. pub may be nil, in which case
// events are not published to the message bus.
func New(db *sql.DB, cfg *config.Config, pub notify.Publisher, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New()

	families := store.NewFamilyStore(db)
	pushSt := store.NewPushStore(db)

	dispatchers := notify.Multi{notify.NewHubDispatcher(hub)}
	if pub != nil {
		dispatchers = append(dispatchers, notify.NewNATSDispatcher(pub, cfg.NATS.SubjectPrefix, logger.With("component", "nats")))
	}
	if cfg.PushEnabled() {
		pushLogger := logger.With("component", "push")
		svc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
		pd := notify.NewPushDispatcher(push.NewNotifier(svc, pushSt, pushLogger), families, pushLogger)
		dispatchers = append(dispatchers, notify.Func(func(ctx context.Context, e notify.Event) {
			go pd.Dispatch(context.WithoutCancel(ctx), e)
		}))
	}

	ledgerSvc := ledger.NewService(db, dispatchers, m, logger)
	choreSvc := chore.NewService(db, ledgerSvc, dispatchers, m, logger)

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		metrics:     m,
		families:    families,
		choreH:      handler.NewChoreHandler(choreSvc, m, logger.With("component", "chore_handler")),
		gameH:       handler.NewGamificationHandler(ledgerSvc, m, logger.With("component", "gamification_handler")),
		memberH:     handler.NewMemberHandler(families, m, logger.With("component", "member_handler")),
		rewardH:     handler.NewRewardHandler(ledgerSvc, m, logger.With("component", "reward_handler")),
		pushH:       handler.NewPushHandler(pushSt, cfg.Push.VAPIDPublicKey, m, logger.With("component", "push_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", s.metrics.Handler())

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	limit := middleware.RateLimit(s.rateLimiter, middleware.MemberKey, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window)
	identity := middleware.RequireIdentity(s.families)
	outerMux.Handle("/", identity(limit(protectedMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.hub.ClientCount()})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Chore definitions
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/assignments", s.choreH.Assign)

	// Assignment lifecycle
	mux.HandleFunc("GET /api/assignments", s.choreH.ListAssignments)
	mux.HandleFunc("GET /api/assignments/{id}", s.choreH.GetAssignment)
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("POST /api/assignments/{id}/verify", s.choreH.Verify)
	mux.HandleFunc("POST /api/assignments/{id}/reassign", s.choreH.Reassign)

	// Members and PINs
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("PUT /api/members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.memberH.ClearPIN)
	mux.HandleFunc("POST /api/members/{id}/pin/verify", s.memberH.VerifyPIN)

	// Gamification ledger
	mux.HandleFunc("POST /api/members/{id}/awards", s.gameH.Award)
	mux.HandleFunc("GET /api/members/{id}/awards", s.gameH.History)
	mux.HandleFunc("GET /api/members/{id}/gamification", s.gameH.State)
	mux.HandleFunc("PATCH /api/members/{id}/gamification", s.gameH.Configure)
	mux.HandleFunc("GET /api/members/{id}/reconcile", s.gameH.Reconcile)
	mux.HandleFunc("GET /api/leaderboard", s.gameH.Leaderboard)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/members/{id}/redemptions", s.rewardH.Redemptions)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/handler"
	"github.com/dukerupert/tuckborough/internal/middleware"
	"github.com/dukerupert/tuckborough/internal/notify"
	"github.com/dukerupert/tuckborough/internal/repeat"
	"github.com/dukerupert/tuckborough/internal/store"
	ws "github.com/dukerupert/tuckborough/internal/websocket"
)

// Config holds everything the server needs beyond its database handle.
type Config struct {
	JWTSecret    []byte
	RepeatPeriod time.Duration
	Push         notify.Config
}

type Server struct {
	db          *sql.DB
	bus         *event.Bus
	hub         *ws.Hub
	scheduler   *repeat.Scheduler
	consumer    *notify.Consumer
	houseH      *handler.HouseHandler
	memberH     *handler.MemberHandler
	taskH       *handler.TaskHandler
	assignmentH *handler.AssignmentHandler
	pushH       *handler.PushHandler
	authH       *handler.AuthHandler
	rateLimiter *middleware.RateLimiter
	jwtSecret   []byte
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	bus := event.NewBus(logger.With("component", "event"))
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	houseStore := store.NewHouseStore(db)
	taskStore := store.NewTaskStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	runLogStore := store.NewRunLogStore(db)
	tokenStore := store.NewPushTokenStore(db)

	repeater := repeat.NewRepeater(taskStore, memberStore, houseStore, assignmentStore, bus, logger.With("component", "repeater"))
	scheduler := repeat.NewScheduler(repeater, runLogStore, bus, cfg.RepeatPeriod, logger.With("component", "scheduler"))

	generator := notify.NewGenerator(taskStore, assignmentStore, houseStore, tokenStore, logger.With("component", "notify"))

	var consumer *notify.Consumer
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc := notify.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		consumer = notify.NewConsumer(generator, pushSvc, tokenStore, bus, logger.With("component", "push"))
		pushH = handler.NewPushHandler(tokenStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:          db,
		bus:         bus,
		hub:         hub,
		scheduler:   scheduler,
		consumer:    consumer,
		houseH:      handler.NewHouseHandler(houseStore, memberStore, bus, logger.With("component", "house")),
		memberH:     handler.NewMemberHandler(memberStore, logger.With("component", "member")),
		taskH:       handler.NewTaskHandler(taskStore, memberStore, houseStore, bus, logger.With("component", "task")),
		assignmentH: handler.NewAssignmentHandler(assignmentStore, taskStore, memberStore, bus, logger.With("component", "assignment")),
		pushH:       pushH,
		authH:       handler.NewAuthHandler(memberStore, cfg.JWTSecret, logger.With("component", "auth")),
		rateLimiter: middleware.NewRateLimiter(),
		jwtSecret:   cfg.JWTSecret,
		logger:      logger,
	}
}

// Start launches the background components: the repeat scheduler, the
// push consumer (when configured), and the websocket bridge.
func (s *Server) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
	if s.consumer != nil {
		s.consumer.Start(ctx)
	}
	ws.Bridge(ctx, s.bus, s.hub)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.rateLimiter.Cleanup()
			}
		}
	}()
}

// Stop shuts the background components down and waits for them.
func (s *Server) Stop() {
	s.scheduler.Stop()
	if s.consumer != nil {
		s.consumer.Stop()
	}
}

// Bus exposes the event bus for tests and auxiliary tooling.
func (s *Server) Bus() *event.Bus {
	return s.bus
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/login", s.rateLimitedLogin)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.jwtSecret)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/houses", s.houseH.Create)
	mux.HandleFunc("GET /api/houses", s.houseH.List)
	mux.HandleFunc("GET /api/houses/{id}", s.houseH.Get)
	mux.HandleFunc("PUT /api/houses/{id}", s.houseH.Update)
	mux.HandleFunc("PUT /api/houses/{id}/status", s.houseH.SetStatus)
	mux.HandleFunc("DELETE /api/houses/{id}", s.houseH.Delete)
	mux.HandleFunc("POST /api/houses/{id}/members", s.houseH.AddMember)
	mux.HandleFunc("DELETE /api/houses/{id}/members", s.houseH.RemoveMember)
	mux.HandleFunc("GET /api/houses/{id}/members", s.houseH.ListRoster)

	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("PUT /api/members/{id}/key", s.memberH.SetAuthKey)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)

	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("PUT /api/tasks/{id}/active", s.taskH.SetActive)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("GET /api/tasks/{id}/assignments", s.assignmentH.ListByTask)

	mux.HandleFunc("POST /api/assignments", s.assignmentH.Create)
	mux.HandleFunc("GET /api/assignments/{id}", s.assignmentH.Get)
	mux.HandleFunc("PUT /api/assignments/{id}/status", s.assignmentH.UpdateStatus)
	mux.HandleFunc("GET /api/assignments", s.assignmentH.ListMine)

	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/tokens", s.pushH.Register)
		mux.HandleFunc("GET /api/push/tokens", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/tokens/{id}", s.pushH.Unregister)
	}

	mux.HandleFunc("GET /api/ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

func (s *Server) rateLimitedLogin(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow(middleware.RealIP(r), 10, time.Minute) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}
	s.authH.Login(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

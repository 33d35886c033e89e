package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shoplist/internal/aggregate"
	"github.com/dukerupert/shoplist/internal/handler"
	"github.com/dukerupert/shoplist/internal/invite"
	"github.com/dukerupert/shoplist/internal/list"
	"github.com/dukerupert/shoplist/internal/middleware"
	"github.com/dukerupert/shoplist/internal/parser"
	"github.com/dukerupert/shoplist/internal/recipe"
	"github.com/dukerupert/shoplist/internal/store"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

// Options configures the collaborators that depend on deployment settings.
type Options struct {
	// StreamSecret signs push channel tickets. Push channels are disabled when empty.
	StreamSecret []byte
	InviteTTL    time.Duration
	// ModelParser handles audio and is tried first for text. Nil means rules only.
	ModelParser parser.Parser
	// WebRecipes enables resolving recipe ids that are page URLs.
	WebRecipes    bool
	RecipeTimeout time.Duration
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	listSvc      *list.Service
	listH        *handler.ListHandler
	authH        *handler.AuthHandler
	sessionStore *store.SessionStore
	idemStore    *store.IdempotencyStore
	invites      *invite.Manager
	rateLimiter  *middleware.RateLimiter
	streamSecret []byte
	logger       *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	listStore := store.NewListStore(db)
	recipeStore := store.NewRecipeStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	providers := []recipe.Provider{recipe.NewCatalogProvider(recipeStore)}
	if opts.WebRecipes {
		timeout := opts.RecipeTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		providers = append(providers, recipe.NewWebProvider(
			&http.Client{Timeout: timeout}, recipeStore, logger.With("component", "recipe_web")))
	}
	resolver := recipe.NewChain(logger.With("component", "recipe"), providers...)

	invites := invite.NewManager(listStore, store.NewInviteStore(db), opts.InviteTTL, logger.With("component", "invite"))
	listSvc := list.NewService(
		listStore,
		invites,
		aggregate.NewAggregator(resolver, logger.With("component", "aggregate")),
		parser.NewMulti(parser.Text{}, opts.ModelParser, logger.With("component", "parser")),
		hub,
		logger.With("component", "list"),
	)

	return &Server{
		db:           db,
		hub:          hub,
		listSvc:      listSvc,
		listH:        handler.NewListHandler(listSvc, logger.With("component", "list_handler")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		sessionStore: sessionStore,
		idemStore:    store.NewIdempotencyStore(db),
		invites:      invites,
		rateLimiter:  middleware.NewRateLimiter(),
		streamSecret: opts.StreamSecret,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// IdempotencyStore returns the idempotency store for cleanup tasks.
func (s *Server) IdempotencyStore() *store.IdempotencyStore {
	return s.idemStore
}

// Invites returns the invite manager for cleanup tasks.
func (s *Server) Invites() *invite.Manager {
	return s.invites
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(middleware.RealIP, s.authH.Login))
	outerMux.HandleFunc("GET /api/categories", handler.Categories)
	outerMux.HandleFunc("GET /api/units", handler.Units)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	idempotent := middleware.Idempotency(s.idemStore, s.logger.With("component", "idempotency"))
	outerMux.Handle("/", authMiddleware(idempotent(protectedMux)))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(keyFunc func(*http.Request) string, h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Lists
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists", s.listH.Lists)
	mux.HandleFunc("GET /api/lists/{list_id}", s.listH.Get)
	mux.HandleFunc("DELETE /api/lists/{list_id}", s.listH.Delete)

	// Items
	mux.HandleFunc("POST /api/lists/{list_id}/items", s.listH.AddItems)
	mux.HandleFunc("PATCH /api/lists/{list_id}/items/{item_id}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{list_id}/items/{item_id}", s.listH.DeleteItem)
	mux.HandleFunc("DELETE /api/lists/{list_id}/items", s.listH.DeleteItems)

	// Recipe attachments
	mux.HandleFunc("PUT /api/lists/{list_id}/recipes/{recipe_id}", s.listH.AttachRecipe)
	mux.HandleFunc("DELETE /api/lists/{list_id}/recipes/{recipe_id}", s.listH.DetachRecipe)
	mux.HandleFunc("DELETE /api/lists/{list_id}/recipes", s.listH.DetachAll)

	// Sharing
	mux.HandleFunc("POST /api/lists/{list_id}/invites", s.listH.CreateInvite)
	mux.HandleFunc("POST /api/invites/join", s.rateLimitedHandler(middleware.UserKey, s.listH.JoinInvite))
	mux.HandleFunc("POST /api/lists/{list_id}/leave", s.listH.Leave)
	mux.HandleFunc("DELETE /api/lists/{list_id}/members", s.listH.ClearMembers)

	// Push channel
	if len(s.streamSecret) > 0 {
		mux.HandleFunc("GET /api/lists/{list_id}/stream",
			ws.HandleStream(s.hub, s.streamSecret, s.listSvc, s.logger.With("component", "stream")))
	}
}

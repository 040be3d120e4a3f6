// Package httpapi is the JSON HTTP surface of the catalog API. Every
// response is wrapped in {"success": bool, "data": ...}.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/services"
	"github.com/gorilla/mux"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, in services.RegisterInput) (string, error)
	OAuth(ctx context.Context, in services.RegisterInput) (string, error)
}

type FavoriteService interface {
	StoreUserFavorite(ctx context.Context, userID, songID string) (*models.Favorite, error)
	GetUserFavorite(ctx context.Context, userID, songID string) (*models.Favorite, error)
	RemoveUserFavorite(ctx context.Context, userID, songID string) (bool, error)
	ListUserFavorites(ctx context.Context, userID string, page models.Page) ([]*models.Favorite, error)
}

type ArtistService interface {
	List(ctx context.Context, keyword string, page models.Page) ([]*models.Artist, error)
	Get(ctx context.Context, id string) (*models.Artist, error)
	Create(ctx context.Context, in services.ArtistInput) (*models.Artist, error)
	Update(ctx context.Context, id string, in services.ArtistInput) (*models.Artist, error)
	Delete(ctx context.Context, id string) (*models.Artist, error)
	IncreaseStreamCount(ctx context.Context, keyword string) (*models.Artist, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	auth      AuthService
	favorites FavoriteService
	artists   ArtistService
	pinger    Pinger
	logger    logging.Logger
}

func NewHandler(a AuthService, f FavoriteService, ar ArtistService, p Pinger, l logging.Logger) *Handler {
	return &Handler{
		auth:      a,
		favorites: f,
		artists:   ar,
		pinger:    p,
		logger:    l.With("module", "http"),
	}
}

// Routes builds the router. Mutating artist routes and all favorite
// routes require a bearer token.
func (h *Handler) Routes(tokens TokenParser) http.Handler {
	r := mux.NewRouter()
	r.Use(recoverPanics(h.logger), accessLog(h.logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/login", h.login).Methods(http.MethodPost)
	authRoutes.HandleFunc("/register", h.register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/oauth", h.oauth).Methods(http.MethodPost)

	fav := api.PathPrefix("/favorites").Subrouter()
	fav.Use(requireAuth(tokens))
	fav.HandleFunc("", h.listFavorites).Methods(http.MethodGet)
	fav.HandleFunc("", h.createFavorite).Methods(http.MethodPost)
	fav.HandleFunc("/{songId}", h.getFavorite).Methods(http.MethodGet)
	fav.HandleFunc("/{songId}", h.removeFavorite).Methods(http.MethodDelete)

	authed := requireAuth(tokens)
	api.HandleFunc("/artists", h.listArtists).Methods(http.MethodGet)
	api.Handle("/artists", authed(http.HandlerFunc(h.createArtist))).Methods(http.MethodPost)
	api.HandleFunc("/artists/stream", h.streamArtist).Methods(http.MethodPost)
	api.HandleFunc("/artists/{id}", h.getArtist).Methods(http.MethodGet)
	api.Handle("/artists/{id}", authed(http.HandlerFunc(h.updateArtist))).Methods(http.MethodPut)
	api.Handle("/artists/{id}", authed(http.HandlerFunc(h.deleteArtist))).Methods(http.MethodDelete)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.PingContext(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, false, map[string]string{"status": "UNAVAILABLE"})
		return
	}
	ok(w, map[string]string{"status": "OK"})
}

// serverError logs err and writes the classified response.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	fail(w, status, msg)
}

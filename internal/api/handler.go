// Package api exposes the favorites service over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
	"faves_sorter/internal/service"
	"faves_sorter/internal/session"
	"faves_sorter/internal/twitter"
)

type Syncer interface {
	Latest(ctx context.Context, sess *service.Session) ([]domain.Favorite, error)
	Before(ctx context.Context, sess *service.Session, beforeID string) ([]domain.Favorite, error)
}

type Filer interface {
	File(ctx context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error)
}

type Collections interface {
	List(ctx context.Context, ownerID string) ([]domain.Collection, error)
	Create(ctx context.Context, ownerID, name string) (*domain.Collection, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Collection, error)
	Delete(ctx context.Context, ownerID, id string) error
	Favorites(ctx context.Context, ownerID, id string) ([]domain.Favorite, error)
}

// Authorizer runs the OAuth1 handshake and reads user profiles.
type Authorizer interface {
	RequestToken() (token, secret string, err error)
	AuthorizationURL(requestToken string) (string, error)
	AccessToken(requestToken, requestSecret, verifier string) (token, secret string, err error)
	VerifyCredentials(ctx context.Context, token, secret string) (*twitter.Profile, error)
	ShowUser(ctx context.Context, user *domain.User) (*twitter.Profile, error)
}

type Users interface {
	Upsert(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
}

// SourceFactory builds the remote source acting for a signed-in user.
type SourceFactory func(user *domain.User) service.RemoteSource

// Deps groups everything the router needs.
type Deps struct {
	Sync        Syncer
	Favorites   Filer
	Collections Collections
	Authorizer  Authorizer
	Users       Users
	Sources     SourceFactory
	Handshakes  session.Store
	Tokens      *TokenIssuer
	Server      config.ServerConfig
	Auth        config.AuthConfig
	SyncConfig  config.SyncConfig
	Logger      *slog.Logger
}

type Handler struct {
	sync        Syncer
	favorites   Filer
	collections Collections
	authorizer  Authorizer
	users       Users
	sources     SourceFactory
	handshakes  session.Store
	tokens      *TokenIssuer
	server      config.ServerConfig
	auth        config.AuthConfig
	logger      *slog.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	h := &Handler{
		sync:        d.Sync,
		favorites:   d.Favorites,
		collections: d.Collections,
		authorizer:  d.Authorizer,
		users:       d.Users,
		sources:     d.Sources,
		handshakes:  d.Handshakes,
		tokens:      d.Tokens,
		server:      d.Server,
		auth:        d.Auth,
		logger:      d.Logger.With("component", "api"),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := r.Group("/auth")
	auth.GET("/sign-in", h.signIn)
	auth.GET("/callback", h.callback)
	auth.GET("", h.status)
	auth.POST("/sign-out", h.signOut)

	protected := r.Group("/api")
	protected.Use(requestTimeout(d.SyncConfig.RequestTimeout), h.authRequired())

	protected.GET("/favorites", h.listFavorites)
	protected.PUT("/favorites/:id", h.fileFavorite)

	protected.GET("/collections", h.listCollections)
	protected.POST("/collections", h.createCollection)
	protected.GET("/collections/:id", h.getCollection)
	protected.DELETE("/collections/:id", h.deleteCollection)
	protected.GET("/collections/:id/favorites", h.collectionFavorites)

	protected.GET("/profile", h.profile)

	return r
}

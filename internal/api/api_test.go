package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
	"faves_sorter/internal/publisher"
	"faves_sorter/internal/service"
	"faves_sorter/internal/session"
	"faves_sorter/internal/storage/memory"
	"faves_sorter/internal/twitter"
)

type fakeRemote struct {
	items []domain.RemoteItem
	err   error
}

func (f *fakeRemote) ListFavorites(_ context.Context, q domain.FetchQuery) ([]domain.RemoteItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q.SinceID != "" || q.MaxID != "" {
		return nil, nil
	}
	if len(f.items) > q.Count {
		return f.items[:q.Count], nil
	}
	return f.items, nil
}

type fakeAuthorizer struct {
	profile *twitter.Profile
}

func (f *fakeAuthorizer) RequestToken() (string, string, error) {
	return "req-token", "req-secret", nil
}

func (f *fakeAuthorizer) AuthorizationURL(token string) (string, error) {
	return "https://provider.test/oauth/authorize?oauth_token=" + token, nil
}

func (f *fakeAuthorizer) AccessToken(token, secret, verifier string) (string, string, error) {
	if token != "req-token" || secret != "req-secret" || verifier != "verifier" {
		return "", "", domain.ErrRemote
	}
	return "access-token", "access-secret", nil
}

func (f *fakeAuthorizer) VerifyCredentials(_ context.Context, token, secret string) (*twitter.Profile, error) {
	return f.profile, nil
}

func (f *fakeAuthorizer) ShowUser(_ context.Context, user *domain.User) (*twitter.Profile, error) {
	return f.profile, nil
}

type APITestSuite struct {
	suite.Suite
	router     http.Handler
	remote     *fakeRemote
	users      *memory.UserStore
	handshakes *session.MemoryStore
	tokens     *TokenIssuer
	user       *domain.User
	token      string
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.remote = &fakeRemote{items: []domain.RemoteItem{
		{ID: "30", CreatedAt: base, Text: domain.String("newest")},
		{ID: "20", CreatedAt: base.Add(-time.Minute), Text: domain.String("middle")},
		{ID: "10", CreatedAt: base.Add(-2 * time.Minute), Text: domain.String("oldest")},
	}}

	favorites := memory.NewFavoriteStore()
	collections := memory.NewCollectionStore()
	txManager := memory.NewTransactionManager()
	s.users = memory.NewUserStore()
	s.handshakes = session.NewMemoryStore()
	s.tokens = NewTokenIssuer("test-secret", time.Hour)

	syncCfg := config.SyncConfig{PageSize: 20, MaxBackfillIterations: 20, RequestTimeout: 5 * time.Second}
	pub := publisher.Noop{}

	s.router = NewRouter(Deps{
		Sync:        service.NewSyncService(favorites, memory.NewRangeStore(), txManager, pub, logger, syncCfg),
		Favorites:   service.NewFavoriteService(favorites, collections, pub, logger),
		Collections: service.NewCollectionService(collections, favorites, txManager, logger),
		Authorizer:  &fakeAuthorizer{profile: &twitter.Profile{IDStr: "777", ScreenName: "alice", Name: "Alice"}},
		Users:       s.users,
		Sources:     func(*domain.User) service.RemoteSource { return s.remote },
		Handshakes:  s.handshakes,
		Tokens:      s.tokens,
		Server:      config.ServerConfig{FrontendBaseURL: "http://front.test", CORSOrigins: []string{"http://front.test"}},
		Auth:        config.AuthConfig{CookieName: "faves_session", TokenTTL: time.Hour, HandshakeTTL: time.Minute},
		SyncConfig:  syncCfg,
		Logger:      logger,
	})

	s.user = &domain.User{RemoteUserID: "777", ScreenName: "alice", OAuthToken: "t", OAuthTokenSecret: "s"}
	s.Require().NoError(s.users.Upsert(context.Background(), s.user))

	token, err := s.tokens.Sign(s.user.ID)
	s.Require().NoError(err)
	s.token = token
}

func (s *APITestSuite) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *APITestSuite) favoriteIDs(w *httptest.ResponseRecorder) []string {
	var body struct {
		Favorites []domain.Favorite `json:"favorites"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	ids := make([]string, len(body.Favorites))
	for i, f := range body.Favorites {
		ids[i] = f.RemoteID
	}
	return ids
}

func (s *APITestSuite) latestFavorites() []domain.Favorite {
	w := s.do(http.MethodGet, "/api/favorites", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Favorites []domain.Favorite `json:"favorites"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Favorites
}

func (s *APITestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", false)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *APITestSuite) TestFavorites_RequireSession() {
	w := s.do(http.MethodGet, "/api/favorites", "", false)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Unauthorized", s.decode(w)["message"])
}

func (s *APITestSuite) TestFavorites_RejectsForgedToken() {
	forged, err := NewTokenIssuer("other-secret", time.Hour).Sign(s.user.ID)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestFavorites_Latest() {
	w := s.do(http.MethodGet, "/api/favorites", "", true)
	s.Equal(http.StatusOK, w.Code)
	s.Equal([]string{"30", "20", "10"}, s.favoriteIDs(w))
}

func (s *APITestSuite) TestFavorites_Before() {
	s.latestFavorites()

	w := s.do(http.MethodGet, "/api/favorites?before_id=20", "", true)
	s.Equal(http.StatusOK, w.Code)
	s.Equal([]string{"10"}, s.favoriteIDs(w))
}

func (s *APITestSuite) TestFavorites_BeforeUnknownAnchor() {
	w := s.do(http.MethodGet, "/api/favorites?before_id=999", "", true)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestFavorites_RemoteFailure() {
	s.remote.err = &twitter.APIError{Endpoint: "favorites/list", StatusCode: 429, Message: "Rate limit exceeded"}

	w := s.do(http.MethodGet, "/api/favorites", "", true)
	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("Remote service failed", s.decode(w)["message"])
}

func (s *APITestSuite) TestFile_InvalidID() {
	w := s.do(http.MethodPut, "/api/favorites/nope", `{"processed":true}`, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("id parameter is invalid", s.decode(w)["message"])
}

func (s *APITestSuite) TestFile_InvalidCollectionID() {
	favs := s.latestFavorites()

	w := s.do(http.MethodPut, "/api/favorites/"+favs[0].ID, `{"collection_id":"nope"}`, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("collection_id is invalid", s.decode(w)["message"])
}

func (s *APITestSuite) TestFile_MissingFavorite() {
	w := s.do(http.MethodPut, "/api/favorites/"+domain.NewID(), `{"processed":true}`, true)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestFile_IntoCollectionHidesFromPages() {
	favs := s.latestFavorites()

	w := s.do(http.MethodPost, "/api/collections", `{"name":"Read later"}`, true)
	s.Require().Equal(http.StatusCreated, w.Code)
	collectionID := s.decode(w)["collection"].(map[string]any)["id"].(string)

	w = s.do(http.MethodPut, "/api/favorites/"+favs[0].ID, `{"collection_id":"`+collectionID+`"}`, true)
	s.Require().Equal(http.StatusOK, w.Code)
	filed := s.decode(w)["favorite"].(map[string]any)
	s.Equal(true, filed["processed"])
	s.Equal(collectionID, filed["collection_id"])

	w = s.do(http.MethodGet, "/api/favorites", "", true)
	s.Equal([]string{"20", "10"}, s.favoriteIDs(w))

	w = s.do(http.MethodGet, "/api/collections/"+collectionID+"/favorites", "", true)
	s.Equal(http.StatusOK, w.Code)
	s.Equal([]string{"30"}, s.favoriteIDs(w))
}

func (s *APITestSuite) TestCollections_CRUD() {
	w := s.do(http.MethodPost, "/api/collections", `{"name":"  Books "}`, true)
	s.Require().Equal(http.StatusCreated, w.Code)
	created := s.decode(w)["collection"].(map[string]any)
	s.Equal("Books", created["name"])
	id := created["id"].(string)

	w = s.do(http.MethodGet, "/api/collections", "", true)
	s.Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["collections"], 1)

	w = s.do(http.MethodGet, "/api/collections/"+id, "", true)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/collections/"+id, "", true)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/collections/"+id, "", true)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestCollections_NameRequired() {
	w := s.do(http.MethodPost, "/api/collections", `{"name":"   "}`, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Name is required", s.decode(w)["message"])
}

func (s *APITestSuite) TestCollections_InvalidID() {
	for _, path := range []string{"/api/collections/nope", "/api/collections/nope/favorites"} {
		w := s.do(http.MethodGet, path, "", true)
		s.Equal(http.StatusBadRequest, w.Code, path)
		nested := s.decode(w)["error"].(map[string]any)
		s.Equal("Invalid collection id", nested["message"], path)
	}

	w := s.do(http.MethodDelete, "/api/collections/nope", "", true)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestProfile() {
	w := s.do(http.MethodGet, "/api/profile", "", true)
	s.Equal(http.StatusOK, w.Code)
	profile := s.decode(w)["profile"].(map[string]any)
	s.Equal("alice", profile["screen_name"])
}

func (s *APITestSuite) TestAuth_HandshakeIssuesSessionCookie() {
	w := s.do(http.MethodGet, "/auth/sign-in", "", false)
	s.Require().Equal(http.StatusFound, w.Code)
	s.Equal("https://provider.test/oauth/authorize?oauth_token=req-token", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/auth/callback?oauth_token=req-token&oauth_verifier=verifier", "", false)
	s.Require().Equal(http.StatusFound, w.Code)
	s.Equal("http://front.test/home", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal("faves_session", cookies[0].Name)
	s.True(cookies[0].HttpOnly)

	userID, err := s.tokens.Verify(cookies[0].Value)
	s.Require().NoError(err)
	s.Equal(s.user.ID, userID)

	stored, err := s.users.Get(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal("access-token", stored.OAuthToken)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestAuth_CallbackIsSingleUse() {
	s.do(http.MethodGet, "/auth/sign-in", "", false)
	w := s.do(http.MethodGet, "/auth/callback?oauth_token=req-token&oauth_verifier=verifier", "", false)
	s.Require().Equal(http.StatusFound, w.Code)

	w = s.do(http.MethodGet, "/auth/callback?oauth_token=req-token&oauth_verifier=verifier", "", false)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAuth_CallbackRequiresParams() {
	w := s.do(http.MethodGet, "/auth/callback", "", false)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestAuth_Status() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/auth", "", false).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/auth", "", true).Code)
}

func (s *APITestSuite) TestAuth_SignOutClearsCookie() {
	w := s.do(http.MethodPost, "/auth/sign-out", "", true)
	s.Equal(http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal("faves_session", cookies[0].Name)
	s.Empty(cookies[0].Value)
	s.Less(cookies[0].MaxAge, 0)
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/shared/config"
	"authgate/internal/tokens"
	"authgate/internal/users"
)

type envelope struct {
	Status     string            `json:"status"`
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
}

func newTestServer(t *testing.T, googleEndpoint string) (*gin.Engine, users.Service, *tokens.Codec, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GinMode: gin.TestMode,
		JWT: config.JWTConfig{
			Secret:     "test-signing-key",
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 180 * 24 * time.Hour,
		},
	}

	directory := newDirectory(t)
	codec := tokens.NewCodec(cfg.JWT.Secret)
	issuer := NewIssuer(codec, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	google := NewGoogleResolver(directory, googleEndpoint, time.Second)
	svc := NewService(directory, NewPasswordResolver(directory), google, issuer, codec)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewRouter(NewController(svc, cfg), cfg).SetupRoutes(api)

	return engine, directory, codec, cfg
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func refreshCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == refreshCookie {
			return cookie
		}
	}
	t.Fatal("refresh_token cookie not set")
	return nil
}

func registerBody() map[string]string {
	return map[string]string{
		"username":   "a",
		"email":      "a@x.com",
		"password":   "Abc12345",
		"password2":  "Abc12345",
		"first_name": "A",
		"last_name":  "B",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	engine, directory, _, _ := newTestServer(t, "")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	// The created identity comes back without any trace of the password.
	assert.Contains(t, w.Body.String(), `"email":"a@x.com"`)
	assert.NotContains(t, w.Body.String(), "Abc12345")
	assert.NotContains(t, w.Body.String(), `"password"`)

	_, err := directory.FindByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
}

func TestRegisterEndpoint_PasswordMismatch(t *testing.T) {
	engine, directory, _, _ := newTestServer(t, "")

	body := registerBody()
	body["password2"] = "Different1"
	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "password and confirmation do not match", env.Errors["password"])

	_, err := directory.FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())
	require.Equal(t, http.StatusCreated, w.Code)

	dup := registerBody()
	dup["username"] = "b"
	w = doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", dup)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	engine, _, codec, cfg := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "Abc12345",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var session SessionResponse
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.UserID)

	_, err := codec.Decode(session.AccessToken, tokens.KindAccess)
	assert.NoError(t, err)

	cookie := refreshCookieFrom(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(cfg.JWT.RefreshTTL.Seconds()), cookie.MaxAge)
	assert.Equal(t, 15552000, cookie.MaxAge)

	_, err = codec.Decode(cookie.Value, tokens.KindRefresh)
	assert.NoError(t, err)
}

func TestLoginEndpoint_IdenticalFailureShape(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	wrongPassword := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "WrongPass1",
	})
	unknownEmail := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ghost@x.com",
		"password": "Abc12345",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Empty(t, wrongPassword.Result().Cookies())
}

func TestRefreshEndpoint(t *testing.T) {
	engine, _, codec, _ := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	login := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "Abc12345",
	})
	cookie := refreshCookieFrom(t, login)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed RefreshResponse
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))

	_, err := codec.Decode(refreshed.AccessToken, tokens.KindAccess)
	assert.NoError(t, err)
}

func TestRefreshEndpoint_NoCookie(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint_ExpiredCookie(t *testing.T) {
	engine, directory, codec, _ := newTestServer(t, "")
	user := registerTestUser(t, directory)

	now := time.Now().UTC()
	expired, err := codec.Encode(&tokens.Claims{
		UserID: user.ID.String(),
		Kind:   tokens.KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	})
	require.NoError(t, err)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", nil,
		&http.Cookie{Name: refreshCookie, Value: expired})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "access_token")
}

func TestRefreshEndpoint_AccessTokenInCookie(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	login := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "Abc12345",
	})
	var session SessionResponse
	env := decodeEnvelope(t, login)
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", nil,
		&http.Cookie{Name: refreshCookie, Value: session.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyGoogleTokenEndpoint(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email": "fed@example.com"}`))
	}))
	defer provider.Close()

	engine, directory, codec, _ := newTestServer(t, provider.URL)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/verify-google-token", map[string]string{
		"google_access_token": "provider-token",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var session SessionResponse
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotEmpty(t, session.UserID)

	_, err := codec.Decode(session.AccessToken, tokens.KindAccess)
	assert.NoError(t, err)

	cookie := refreshCookieFrom(t, w)
	_, err = codec.Decode(cookie.Value, tokens.KindRefresh)
	assert.NoError(t, err)

	user, err := directory.FindByEmail(context.Background(), "fed@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.UserID)
}

func TestVerifyGoogleTokenEndpoint_ProviderRejects(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_token"}`, http.StatusBadRequest)
	}))
	defer provider.Close()

	engine, directory, _, _ := newTestServer(t, provider.URL)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/verify-google-token", map[string]string{
		"google_access_token": "bad-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err := directory.FindByEmail(context.Background(), "fed@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestVerifyGoogleTokenEndpoint_MissingToken(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/verify-google-token", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	login := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "Abc12345",
	})
	var session SessionResponse
	env := decodeEnvelope(t, login)
	require.NoError(t, json.Unmarshal(env.Data, &session))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@x.com"`)
}

func TestMeEndpoint_RequiresAccessToken(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")
	doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody())

	login := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "Abc12345",
	})
	cookie := refreshCookieFrom(t, login)

	// No header at all.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A refresh token in the bearer slot is not an access token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndpoint_ClearsCookie(t *testing.T) {
	engine, _, _, _ := newTestServer(t, "")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	cookie := refreshCookieFrom(t, w)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

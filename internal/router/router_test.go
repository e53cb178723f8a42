package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/service"
	"go-auth-service/internal/token"
)

type memoryUserStore struct {
	users map[string]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]model.User{}}
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	user, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	return ok, nil
}

func (s *memoryUserStore) Create(_ context.Context, user model.User) error {
	s.users[strings.ToLower(user.Username)] = user
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *token.Codec) {
	t.Helper()

	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	codec, err := token.NewCodec(secret, time.Hour)
	require.NoError(t, err)

	store := newMemoryUserStore()
	authService := service.NewAuthService(store, service.NewBcryptHasher(bcrypt.MinCost), codec)
	authMiddleware := middleware.NewAuthMiddleware(codec, store)
	authHandler := handler.NewAuthHandler(authService)
	demoHandler := handler.NewDemoHandler()

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(New(cfg, authMiddleware, authHandler, demoHandler))
	t.Cleanup(server.Close)

	return server, codec
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeToken(t *testing.T, resp *http.Response) string {
	t.Helper()

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.True(t, parsed.Success)
	require.NotEmpty(t, parsed.Data.Token)
	return parsed.Data.Token
}

func registerAlice(t *testing.T, server *httptest.Server) string {
	t.Helper()

	resp := postJSON(t, server.URL+"/api/v1/auth/register", map[string]string{
		"username":  "alice",
		"password":  "s3cret",
		"firstname": "A",
		"lastname":  "L",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeToken(t, resp)
}

func TestRegisterThenLogin(t *testing.T) {
	server, codec := newTestServer(t)

	registerAlice(t, server)

	loginResp := postJSON(t, server.URL+"/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	subject, err := codec.ExtractSubject(decodeToken(t, loginResp))
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	server, _ := newTestServer(t)

	registerAlice(t, server)

	resp := postJSON(t, server.URL+"/api/v1/auth/register", map[string]string{
		"username": "alice",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProtectedRouteWithBearerToken(t *testing.T) {
	server, _ := newTestServer(t)
	tokenString := registerAlice(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/demo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Data struct {
			Username    string   `json:"username"`
			Authorities []string `json:"authorities"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "alice", parsed.Data.Username)
	assert.Equal(t, []string{"user"}, parsed.Data.Authorities)
}

func TestProtectedRouteWithoutHeaderIsRejectedDownstream(t *testing.T) {
	server, _ := newTestServer(t)
	registerAlice(t, server)

	resp, err := http.Get(server.URL + "/api/v1/demo")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteWithTamperedToken(t *testing.T) {
	server, _ := newTestServer(t)
	tokenString := registerAlice(t, server)

	mutated := tokenString[:len(tokenString)-2] + "xx"

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/demo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+mutated)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFailureBodiesAreIdentical(t *testing.T) {
	server, _ := newTestServer(t)
	registerAlice(t, server)

	unknownResp := postJSON(t, server.URL+"/api/v1/auth/login", map[string]string{
		"username": "nobody",
		"password": "whatever",
	})
	wrongPassResp := postJSON(t, server.URL+"/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, wrongPassResp.StatusCode)

	unknownBody, err := io.ReadAll(unknownResp.Body)
	require.NoError(t, err)
	wrongPassBody, err := io.ReadAll(wrongPassResp.Body)
	require.NoError(t, err)
	assert.Equal(t, string(unknownBody), string(wrongPassBody),
		"unknown user and wrong password must be indistinguishable")
}

func TestMeEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	tokenString := registerAlice(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Data model.UserProfile `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "alice", parsed.Data.Username)
	assert.Equal(t, "A", parsed.Data.Firstname)
	assert.Equal(t, model.RoleUser, parsed.Data.Role)
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvalidJSONBody(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

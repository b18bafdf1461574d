package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	engine, err := identity.New(identity.Config{
		Token: identity.TokenConfig{
			AccessSecret:  []byte(strings.Repeat("a", 32)),
			RefreshSecret: []byte(strings.Repeat("r", 32)),
			AccessTTL:     time.Hour,
			RefreshTTL:    24 * time.Hour,
		},
	}, memory.New(), rdb)
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(engine).Routes())
	t.Cleanup(ts.Close)
	return ts
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Guard rejections are plain text; everything else is enveloped JSON.
	var env testEnvelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func registerUser(t *testing.T, ts *httptest.Server, email string) (user identity.Account, tokens identity.TokenPair) {
	t.Helper()
	status, env := doJSON(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     email,
		"password":  "Abcdef1!",
		"firstName": "Ada",
		"lastName":  "Byron",
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	var data struct {
		User   identity.Account   `json:"user"`
		Tokens identity.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.User, data.Tokens
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	user, tokens := registerUser(t, ts, "a@x.com")
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Duplicate email conflicts.
	status, env := doJSON(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "a@x.com",
		"password":  "Abcdef1!",
		"firstName": "Ada",
		"lastName":  "Byron",
	})
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EMAIL_TAKEN", env.Error.Code)

	// Missing fields are rejected before the engine runs.
	status, env = doJSON(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "a@x.com")

	status, env := doJSON(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "Abcdef1!",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = doJSON(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "Wrongpw1!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestProfileEndpointRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	user, tokens := registerUser(t, ts, "a@x.com")

	resp, err := ts.Client().Get(ts.URL + "/auth/profile")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, env := doJSON(t, ts, http.MethodGet, "/auth/profile", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	var data struct {
		User identity.Account `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, user.ID, data.User.ID)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, tokens := registerUser(t, ts, "a@x.com")

	status, env := doJSON(t, ts, http.MethodPut, "/auth/profile", tokens.AccessToken, map[string]string{
		"firstName": "Grace",
	})
	assert.Equal(t, http.StatusOK, status)

	var data struct {
		User identity.Account `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Grace", data.User.FirstName)
	assert.Equal(t, "Byron", data.User.LastName)
}

func TestRefreshEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, tokens := registerUser(t, ts, "a@x.com")

	status, env := doJSON(t, ts, http.MethodPost, "/auth/refresh-token", "", map[string]string{
		"refreshToken": tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, status)

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AccessToken)

	status, env = doJSON(t, ts, http.MethodPost, "/auth/refresh-token", "", map[string]string{
		"refreshToken": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, tokens := registerUser(t, ts, "a@x.com")

	status, _ := doJSON(t, ts, http.MethodPost, "/auth/logout", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, ts, http.MethodGet, "/auth/profile", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChangePasswordEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, tokens := registerUser(t, ts, "a@x.com")

	status, env := doJSON(t, ts, http.MethodPost, "/auth/password/change", tokens.AccessToken, map[string]string{
		"currentPassword": "Abcdef1!",
		"newPassword":     "Abcdef1!",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SAME_PASSWORD", env.Error.Code)

	status, _ = doJSON(t, ts, http.MethodPost, "/auth/password/change", tokens.AccessToken, map[string]string{
		"currentPassword": "Abcdef1!",
		"newPassword":     "Newpass1!",
	})
	assert.Equal(t, http.StatusOK, status)

	// Sessions are revoked; the old access token no longer works.
	status, _ = doJSON(t, ts, http.MethodGet, "/auth/profile", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "Newpass1!",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	ts := newTestServer(t)

	status, env := doJSON(t, ts, http.MethodPost, "/auth/password/forgot", "", map[string]string{
		"email": "ghost@x.com",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

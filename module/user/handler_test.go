package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meizuno/Chat/module/user/service"
	"github.com/Meizuno/Chat/service/storage"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(storage.NewMemoryUserStore(), storage.NewMemoryTokenStore(), service.Conf{
		Secret: []byte("test-secret"),
	})
	r := gin.New()
	NewHandler(svc).Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func registerUser(t *testing.T, r *gin.Engine, email string) (userID, token string) {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     email,
		"password":  "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	u := body["user"].(map[string]any)
	return u["id"].(string), body["token"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter()

	w, body := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, body["token"])

	u := body["user"].(map[string]any)
	assert.Equal(t, "Ada", u["firstName"])
	assert.Equal(t, "ada@example.com", u["email"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "passwordHash")
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter()

	// Password below the minimum length.
	w, body := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"firstName": "Ada",
		"email":     "ada@example.com",
		"password":  "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", body["error"])

	// Not an email.
	w, _ = doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"firstName": "Ada",
		"email":     "not-an-email",
		"password":  "s3cretpass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "ada@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"firstName": "Other",
		"email":     "ada@example.com",
		"password":  "otherpass1",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "ada@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	assert.NotNil(t, body["user"])

	w, body = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestMeRequiresBearer(t *testing.T) {
	r := newTestRouter()
	userID, token := registerUser(t, r, "ada@example.com")

	w, body := doJSON(t, r, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "ada@example.com", body["email"])

	w, body = doJSON(t, r, http.MethodGet, "/user/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing token", body["error"])

	w, _ = doJSON(t, r, http.MethodGet, "/user/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	r := newTestRouter()
	userID, token := registerUser(t, r, "ada@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])
	u := body["user"].(map[string]any)
	assert.Equal(t, userID, u["id"])
}

func TestLogoutKillsTheSession(t *testing.T) {
	r := newTestRouter()
	_, token := registerUser(t, r, "ada@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgotPasswordNeverLeaksTheToken(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "ada@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/user/forgot-password", "", gin.H{
		"email":      "ada@example.com",
		"redirectTo": "http://localhost/auth/reset",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "token")

	// Unknown email gets the same empty answer.
	w, body = doJSON(t, r, http.MethodPost, "/user/forgot-password", "", gin.H{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "token")
}

func TestResetPasswordValidation(t *testing.T) {
	r := newTestRouter()

	w, _ := doJSON(t, r, http.MethodPut, "/user/reset-password", "", gin.H{
		"password": "short",
		"token":    "whatever",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, body := doJSON(t, r, http.MethodPut, "/user/reset-password", "", gin.H{
		"password": "longenoughpass",
		"token":    "not-a-real-token",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, body["error"])
}

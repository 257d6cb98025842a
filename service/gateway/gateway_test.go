package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meizuno/Chat/service/session"
	"github.com/Meizuno/Chat/tools/errs"
)

type recordingNotifier struct {
	events []Notification
}

func (n *recordingNotifier) Notify(e Notification) { n.events = append(n.events, e) }

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) NavigateTo(path string) { n.paths = append(n.paths, path) }

type fixture struct {
	gw       *Gateway
	sess     *session.Session
	notifier *recordingNotifier
	nav      *recordingNavigator
	lastReq  *http.Request
	lastBody []byte
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{
		sess:     session.New(),
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastReq = r.Clone(r.Context())
		f.lastBody, _ = io.ReadAll(r.Body)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	f.gw = New(ts.URL, ts.Client(), f.sess, f.notifier, f.nav)
	return f
}

func okJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func failJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestSendAttachesBearerWhenHeld(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))
	f.sess.Set("secret-token", &session.Profile{ID: "u1"})

	_, err := f.gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/user/me"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", f.lastReq.Header.Get("Authorization"))
}

func TestSendNoBearerWithoutCredential(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))

	_, err := f.gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/user/me"})
	require.NoError(t, err)
	assert.Empty(t, f.lastReq.Header.Get("Authorization"))
}

func TestSendNoAuthSuppressesBearer(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))
	f.sess.Set("secret-token", &session.Profile{ID: "u1"})

	_, err := f.gw.Send(context.Background(), Request{
		Method: http.MethodPost, Path: "/auth/login", NoAuth: true,
	})
	require.NoError(t, err)
	assert.Empty(t, f.lastReq.Header.Get("Authorization"))
}

func TestSendPreservesCallerHeaders(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))
	f.sess.Set("secret-token", &session.Profile{ID: "u1"})

	hdr := http.Header{}
	hdr.Set("X-Request-Id", "req-42")
	hdr.Set("Authorization", "Bearer stale")

	_, err := f.gw.Send(context.Background(), Request{
		Method: http.MethodGet, Path: "/user/me", Header: hdr,
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", f.lastReq.Header.Get("X-Request-Id"))
	// Authorization is the one header the gateway owns.
	assert.Equal(t, "Bearer secret-token", f.lastReq.Header.Get("Authorization"))
	assert.Len(t, f.lastReq.Header.Values("Authorization"), 1)
}

func TestSend401ClearsSessionAndRedirects(t *testing.T) {
	f := newFixture(t, failJSON(http.StatusUnauthorized, `{"error":"token expired"}`))
	f.sess.Set("stale", &session.Profile{ID: "u1", FirstName: "Ada"})

	_, err := f.gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/user/me"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, "token expired", errs.Msg(err))

	// Credential and identity are both gone.
	assert.Empty(t, f.sess.Token())
	assert.Nil(t, f.sess.Profile())
	assert.Equal(t, []string{LoginPath}, f.nav.paths)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, SeverityError, f.notifier.events[0].Severity)
	assert.Equal(t, "token expired", f.notifier.events[0].Description)
}

func TestSendServerErrorKeepsSession(t *testing.T) {
	f := newFixture(t, failJSON(http.StatusInternalServerError, `{"message":"boom"}`))
	f.sess.Set("tok", &session.Profile{ID: "u1"})

	_, err := f.gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/user/me"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, errs.Code(err))
	assert.Equal(t, "boom", errs.Msg(err))

	assert.Equal(t, "tok", f.sess.Token())
	assert.NotNil(t, f.sess.Profile())
	assert.Empty(t, f.nav.paths)
}

func TestSendFallbackErrorMessage(t *testing.T) {
	f := newFixture(t, failJSON(http.StatusNotFound, ``))

	_, err := f.gw.Send(context.Background(), Request{Method: http.MethodGet, Path: "/nope"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errs.Code(err))
	assert.Equal(t, errs.DefaultErrorMsg, errs.Msg(err))
}

func TestSendNetworkError(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))
	f.sess.Set("tok", &session.Profile{ID: "u1"})

	// Point the gateway at a dead address.
	dead := New("http://127.0.0.1:1", &http.Client{}, f.sess, f.notifier, f.nav)
	_, err := dead.Send(context.Background(), Request{Method: http.MethodGet, Path: "/user/me"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNetwork)

	// No session mutation on transport failure.
	assert.Equal(t, "tok", f.sess.Token())
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, SeverityError, f.notifier.events[0].Severity)
}

func TestLoginSetsSession(t *testing.T) {
	f := newFixture(t, okJSON(`{
		"user": {
			"id": "u1",
			"firstName": "Ada",
			"lastName": "Lovelace",
			"email": "ada@example.com",
			"isActive": true,
			"createdAt": "2024-03-01T10:00:00Z",
			"updatedAt": "2024-03-02T11:30:00Z"
		},
		"token": "fresh-token"
	}`))

	profile, err := f.gw.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, 2024, profile.CreatedAt.Year())

	assert.Equal(t, "fresh-token", f.sess.Token())
	require.NotNil(t, f.sess.Profile())
	assert.Equal(t, "ada@example.com", f.sess.Profile().Email)

	// Login never sends a credential.
	assert.Empty(t, f.lastReq.Header.Get("Authorization"))

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, SeveritySuccess, f.notifier.events[0].Severity)
}

func TestRegisterSuppressesStaleCredential(t *testing.T) {
	f := newFixture(t, okJSON(`{"user":{"id":"u2","firstName":"Grace"},"token":"t2"}`))
	f.sess.Set("stale", &session.Profile{ID: "u1"})

	_, err := f.gw.Register(context.Background(), "Grace", "Hopper", "grace@example.com", "pw12345678")
	require.NoError(t, err)
	assert.Empty(t, f.lastReq.Header.Get("Authorization"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(f.lastBody, &body))
	assert.Equal(t, "Grace", body["firstName"])
	assert.Equal(t, "grace@example.com", body["email"])

	assert.Equal(t, "t2", f.sess.Token())
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))
	f.sess.Set("tok", &session.Profile{ID: "u1"})

	require.NoError(t, f.gw.Logout(context.Background()))
	assert.Empty(t, f.sess.Token())
	assert.Nil(t, f.sess.Profile())
}

func TestRefreshRotatesTokenKeepsProfile(t *testing.T) {
	f := newFixture(t, okJSON(`{"token":"rotated"}`))
	f.sess.Set("old", &session.Profile{ID: "u1", FirstName: "Ada"})

	require.NoError(t, f.gw.Refresh(context.Background()))
	assert.Equal(t, "rotated", f.sess.Token())
	require.NotNil(t, f.sess.Profile())
	assert.Equal(t, "Ada", f.sess.Profile().FirstName)

	assert.Equal(t, "Bearer old", f.lastReq.Header.Get("Authorization"))
}

func TestFetchSelfStoresProfile(t *testing.T) {
	f := newFixture(t, okJSON(`{"id":"u1","firstName":"Ada","email":"ada@example.com"}`))
	f.sess.Set("tok", &session.Profile{ID: "u1"})

	profile, err := f.gw.FetchSelf(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, "tok", f.sess.Token())
	assert.Equal(t, "Ada", f.sess.Profile().FirstName)
}

func TestForgotPasswordNavigatesToLogin(t *testing.T) {
	f := newFixture(t, okJSON(`{}`))

	require.NoError(t, f.gw.ForgotPassword(context.Background(), "ada@example.com", "/auth/reset"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(f.lastBody, &body))
	assert.Equal(t, "/auth/reset", body["redirectTo"])

	assert.Equal(t, []string{LoginPath}, f.nav.paths)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "Password reset email sent", f.notifier.events[0].Title)
}

func TestFlowFailurePropagates(t *testing.T) {
	f := newFixture(t, failJSON(http.StatusUnauthorized, `{"error":"invalid email or password"}`))

	_, err := f.gw.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, "invalid email or password", errs.Msg(err))
	assert.Empty(t, f.sess.Token())
}

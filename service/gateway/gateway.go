package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Meizuno/Chat/service/session"
	"github.com/Meizuno/Chat/tools/errs"
	"github.com/Meizuno/Chat/tools/safe"
)

// LoginPath is where the navigator is pointed after a 401.
const LoginPath = "/auth/login"

// Request is a one-shot outbound call description.
type Request struct {
	Method string
	Path   string
	Body   any         // marshaled to JSON when non-nil
	Header http.Header // caller headers, preserved except Authorization
	NoAuth bool        // suppress bearer attachment (login/register)
}

// Response is a decoded 2xx reply.
type Response struct {
	Status int
	Body   map[string]any
}

// Gateway centralizes outbound request augmentation and failure
// classification: bearer attachment, 401-driven session teardown, and the
// error taxonomy every caller sees. It reads the shared session but mutates
// it only on 401 (clear); success-path mutation belongs to the flows.
type Gateway struct {
	base     string
	http     *http.Client
	session  *session.Session
	notifier Notifier
	nav      Navigator
}

func New(baseURL string, hc *http.Client, sess *session.Session, notifier Notifier, nav Navigator) *Gateway {
	safe.MustNotNil(hc, "http client")
	safe.MustNotNil(sess, "session")
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if nav == nil {
		nav = LogNavigator{}
	}
	return &Gateway{
		base:     strings.TrimRight(baseURL, "/"),
		http:     hc,
		session:  sess,
		notifier: notifier,
		nav:      nav,
	}
}

// Send dispatches the request and classifies the outcome.
//
//   - transport failure  -> errs.ErrNetwork, session untouched
//   - 401                -> session cleared, navigate to login, errs.ErrUnauthorized
//   - other non-2xx      -> errs.NewServerError(status, msg), session untouched
//   - 2xx                -> decoded body; session mutation is the caller's job
//
// Every failure path also emits an error notification.
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := g.build(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		g.notifier.Notify(Notification{
			Severity:    SeverityError,
			Title:       "Request failed",
			Description: errs.DefaultErrorMsg,
		})
		return nil, errs.ErrNetwork.WrapMsg(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		g.notifier.Notify(Notification{
			Severity:    SeverityError,
			Title:       "Request failed",
			Description: errs.DefaultErrorMsg,
		})
		return nil, errs.ErrNetwork.WrapMsg(err.Error())
	}

	body := decodeBody(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(body)

		if resp.StatusCode == http.StatusUnauthorized {
			// Credential and identity go together, before any redirect.
			g.session.Clear()
			g.nav.NavigateTo(LoginPath)
			g.notifier.Notify(Notification{
				Severity:    SeverityError,
				Title:       "Session expired",
				Description: msg,
			})
			return nil, errs.ErrUnauthorized.WithMsg(msg).Wrap()
		}

		g.notifier.Notify(Notification{
			Severity:    SeverityError,
			Title:       "Request failed",
			Description: msg,
		})
		return nil, errs.NewServerError(resp.StatusCode, msg).Wrap()
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

func (g *Gateway) build(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errs.ErrNetwork.WrapMsg("encode body: " + err.Error())
		}
		body = bytes.NewReader(b)
	}

	target := g.base + "/" + strings.TrimLeft(req.Path, "/")
	if _, err := url.Parse(target); err != nil {
		return nil, errs.ErrNetwork.WrapMsg("bad url: " + err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errs.ErrNetwork.WrapMsg(err.Error())
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// The Authorization header is the one header the gateway owns.
	if req.NoAuth {
		httpReq.Header.Del("Authorization")
	} else if token := g.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func decodeBody(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// errorMessage pulls the server-provided error text, falling back to the
// generic string.
func errorMessage(body map[string]any) string {
	for _, key := range []string{"error", "message"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	return errs.DefaultErrorMsg
}

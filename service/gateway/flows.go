package gateway

import (
	"context"
	"net/http"

	"github.com/Meizuno/Chat/service/session"
	"github.com/Meizuno/Chat/tools/decode"
	"github.com/Meizuno/Chat/tools/errs"
)

// The flows are thin sequences over Send: issue the call, update the shared
// session on success, emit a success notification. Failure handling
// (classification, 401 teardown, error notification) already happened
// inside Send.

// Login authenticates with email and password. No bearer is attached; there
// is no credential yet.
func (g *Gateway) Login(ctx context.Context, email, password string) (*session.Profile, error) {
	resp, err := g.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": email, "password": password},
		NoAuth: true,
	})
	if err != nil {
		return nil, err
	}
	profile, token, err := userAndToken(resp)
	if err != nil {
		return nil, err
	}
	g.session.Set(token, profile)
	g.notifier.Notify(Notification{
		Severity:    SeveritySuccess,
		Title:       "Signed in",
		Description: "Welcome back, " + profile.FirstName + "!",
	})
	return profile, nil
}

// Register creates an account and signs the user in. Like Login it
// suppresses bearer attachment.
func (g *Gateway) Register(ctx context.Context, firstName, lastName, email, password string) (*session.Profile, error) {
	resp, err := g.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body: map[string]string{
			"firstName": firstName,
			"lastName":  lastName,
			"email":     email,
			"password":  password,
		},
		NoAuth: true,
	})
	if err != nil {
		return nil, err
	}
	profile, token, err := userAndToken(resp)
	if err != nil {
		return nil, err
	}
	g.session.Set(token, profile)
	g.notifier.Notify(Notification{
		Severity:    SeveritySuccess,
		Title:       "Account created",
		Description: "Welcome, " + profile.FirstName + "!",
	})
	return profile, nil
}

// Logout revokes the server-side session and clears the local one. The local
// clear happens even when the call fails; a dead token is not worth keeping.
func (g *Gateway) Logout(ctx context.Context) error {
	_, err := g.Send(ctx, Request{Method: http.MethodPost, Path: "/auth/logout"})
	g.session.Clear()
	if err != nil {
		return err
	}
	g.notifier.Notify(Notification{
		Severity:    SeveritySuccess,
		Title:       "Signed out",
		Description: "You have been signed out.",
	})
	return nil
}

// Refresh exchanges the current token for a fresh one. The profile is kept;
// only the credential rotates (the server may also return an updated user).
func (g *Gateway) Refresh(ctx context.Context) error {
	resp, err := g.Send(ctx, Request{Method: http.MethodPost, Path: "/auth/refresh"})
	if err != nil {
		return err
	}
	token, _ := resp.Body["token"].(string)
	if token == "" {
		return errs.NewServerError(resp.Status, "missing token in refresh response").Wrap()
	}
	profile := g.session.Profile()
	if userMap, ok := resp.Body["user"].(map[string]any); ok {
		if p, derr := decode.FromMap[session.Profile](userMap); derr == nil {
			profile = p
		}
	}
	g.session.Set(token, profile)
	return nil
}

// FetchSelf asks the API who the current token belongs to and stores the
// answer. Used on boot to restore an identity from a persisted token.
func (g *Gateway) FetchSelf(ctx context.Context) (*session.Profile, error) {
	resp, err := g.Send(ctx, Request{Method: http.MethodGet, Path: "/user/me"})
	if err != nil {
		return nil, err
	}
	profile, err := decodeUser(resp)
	if err != nil {
		return nil, err
	}
	g.session.Set(g.session.Token(), profile)
	return profile, nil
}

// ForgotPassword requests a reset email; redirectTo is where the emailed
// link should land the user.
func (g *Gateway) ForgotPassword(ctx context.Context, email, redirectTo string) error {
	_, err := g.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   "/user/forgot-password",
		Body:   map[string]string{"email": email, "redirectTo": redirectTo},
	})
	if err != nil {
		return err
	}
	g.notifier.Notify(Notification{
		Severity:    SeveritySuccess,
		Title:       "Password reset email sent",
		Description: "Please check your email for the password reset link.",
	})
	g.nav.NavigateTo(LoginPath)
	return nil
}

// ResetPassword sets a new password using the token from the reset email.
func (g *Gateway) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	_, err := g.Send(ctx, Request{
		Method: http.MethodPut,
		Path:   "/user/reset-password",
		Body:   map[string]string{"password": newPassword, "token": resetToken},
		NoAuth: true,
	})
	if err != nil {
		return err
	}
	g.notifier.Notify(Notification{
		Severity:    SeveritySuccess,
		Title:       "Password reset successful",
		Description: "Your password has been reset. Please sign in with your new password.",
	})
	g.nav.NavigateTo(LoginPath)
	return nil
}

func userAndToken(resp *Response) (*session.Profile, string, error) {
	profile, err := decodeUser(resp)
	if err != nil {
		return nil, "", err
	}
	token, _ := resp.Body["token"].(string)
	if token == "" {
		return nil, "", errs.NewServerError(resp.Status, "missing token in response").Wrap()
	}
	return profile, token, nil
}

func decodeUser(resp *Response) (*session.Profile, error) {
	userMap, ok := resp.Body["user"].(map[string]any)
	if !ok {
		// /user/me returns the profile at the top level.
		userMap = resp.Body
	}
	profile, err := decode.FromMap[session.Profile](userMap)
	if err != nil {
		return nil, errs.NewServerError(resp.Status, "malformed user payload").WrapMsg(err.Error())
	}
	return profile, nil
}

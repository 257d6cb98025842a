package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Meizuno/Chat/logger"
	"github.com/Meizuno/Chat/module/user/model"
	"github.com/Meizuno/Chat/service/storage"
	"github.com/Meizuno/Chat/tools/errs"
	"github.com/Meizuno/Chat/tools/ids"
	"github.com/Meizuno/Chat/tools/safe"
	"github.com/Meizuno/Chat/tools/security"
)

// Conf carries the token parameters of the auth service.
type Conf struct {
	Secret     []byte
	AccessTTL  time.Duration // lifetime of an issued bearer token
	ResetTTL   time.Duration // lifetime of a password-reset link
	SessionTTL time.Duration // how long the server remembers the live session
}

func (c *Conf) norm() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 2 * time.Hour
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = 30 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 72 * time.Hour
	}
}

// Service implements the account flows behind the /auth and /user routes:
// registration, credentialed login, token rotation with server-side
// revocation, and the password-reset round trip.
type Service struct {
	users  storage.UserStore
	tokens storage.TokenStore
	conf   Conf
}

func New(users storage.UserStore, tokens storage.TokenStore, conf Conf) *Service {
	safe.MustNotNil(users, "user store")
	safe.MustNotNil(tokens, "token store")
	conf.norm()
	return &Service{users: users, tokens: tokens, conf: conf}
}

func (s *Service) accessOpts() security.Options {
	return security.Options{Secret: s.conf.Secret, TTL: s.conf.AccessTTL}
}

func (s *Service) resetOpts() security.Options {
	return security.Options{Secret: s.conf.Secret, TTL: s.conf.ResetTTL}
}

// AccessTokenOptions exposes the verification parameters for middleware and
// the relay handshake.
func (s *Service) AccessTokenOptions() security.Options {
	return s.accessOpts()
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (*model.User, string, error) {
	email = normEmail(email)
	if email == "" || password == "" || firstName == "" {
		return nil, "", errs.ErrBadCredentials.WithMsg("missing required fields").Wrap()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errs.ErrBadCredentials.WrapMsg(err.Error())
	}

	rec := &storage.UserRecord{
		ID:           ids.GenerateString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	rec.Touch(time.Now())

	if err := s.users.Create(ctx, rec); err != nil {
		return nil, "", err
	}
	return s.issueSession(ctx, rec)
}

// Login verifies the credentials and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	rec, err := s.users.ByEmail(ctx, normEmail(email))
	if err != nil {
		// Same answer for unknown email and wrong password.
		return nil, "", errs.ErrBadCredentials.Wrap()
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, "", errs.ErrBadCredentials.Wrap()
	}
	return s.issueSession(ctx, rec)
}

// Logout revokes the live session; the bearer token dies server-side.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.RevokeSession(ctx, userID)
}

// Refresh rotates the caller's token: the presented one must still be the
// live session, the replacement takes its place.
func (s *Service) Refresh(ctx context.Context, token string) (*model.User, string, error) {
	userID, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return s.issueSession(ctx, rec)
}

// Me resolves the profile behind an authenticated user ID.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	rec, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.FromRecord(rec), nil
}

// Authenticate validates a bearer token and checks it is the user's live
// session (not revoked by logout or superseded by refresh).
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := security.Verify(s.accessOpts(), token, security.AudAccess)
	if err != nil {
		return "", err
	}
	live, err := s.tokens.CheckSession(ctx, userID, security.HashToken(token))
	if err != nil {
		return "", err
	}
	if !live {
		return "", errs.ErrTokenExpired.Wrap()
	}
	return userID, nil
}

// ForgotPassword issues a reset token for the account, when one exists. The
// delivery channel is out of scope; the link is logged where a mailer would
// hook in, and the token is returned for that integration. An unknown email
// gets the same silence as a known one.
func (s *Service) ForgotPassword(ctx context.Context, email, redirectTo string) (string, error) {
	rec, err := s.users.ByEmail(ctx, normEmail(email))
	if err != nil {
		logger.Debugf("[user] forgot-password for unknown email")
		return "", nil
	}

	token, _, err := security.Generate(s.resetOpts(), rec.ID, security.AudReset)
	if err != nil {
		return "", err
	}
	if err := s.tokens.SaveReset(ctx, security.HashToken(token), rec.ID, s.conf.ResetTTL); err != nil {
		return "", err
	}

	logger.Infof("[user] password reset link for %s: %s?token=%s", rec.Email, redirectTo, token)
	return token, nil
}

// ResetPassword redeems a reset token and stores the new password. The token
// is single-use; a second redemption fails.
func (s *Service) ResetPassword(ctx context.Context, newPassword, token string) error {
	if newPassword == "" {
		return errs.ErrBadCredentials.WithMsg("password must not be empty").Wrap()
	}
	userID, err := security.Verify(s.resetOpts(), token, security.AudReset)
	if err != nil {
		return err
	}
	storedID, err := s.tokens.ConsumeReset(ctx, security.HashToken(token))
	if err != nil {
		return err
	}
	if storedID != userID {
		return errs.ErrTokenInvalid.Wrap()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errs.ErrBadCredentials.WrapMsg(err.Error())
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	// A password change kills the live session too.
	return s.tokens.RevokeSession(ctx, userID)
}

func (s *Service) issueSession(ctx context.Context, rec *storage.UserRecord) (*model.User, string, error) {
	token, _, err := security.Generate(s.accessOpts(), rec.ID, security.AudAccess)
	if err != nil {
		return nil, "", err
	}
	if err := s.tokens.SaveSession(ctx, rec.ID, security.HashToken(token), s.conf.SessionTTL); err != nil {
		return nil, "", err
	}
	return model.FromRecord(rec), token, nil
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

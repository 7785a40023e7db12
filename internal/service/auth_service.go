package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/session"
)

const (
	// ProfilePath is where customers land after signing in.
	ProfilePath = "/user-profile"
	// SignupDetailsPath is where a new user lands after signing up.
	SignupDetailsPath = "/signup-details"
)

// AuthGateway is the slice of the gateway client the auth flows need.
type AuthGateway interface {
	Authenticate(ctx context.Context, req domain.AuthenticationRequest) (string, error)
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	ForgotPassword(ctx context.Context, emailOrUsername string) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	VerificationStatus(ctx context.Context, emailOrUsername string) (bool, error)
	ResendConfirmation(ctx context.Context, emailOrUsername string) error
}

// SessionStarter accepts an issued token. *session.Gate satisfies it.
type SessionStarter interface {
	SignIn(ctx context.Context, token string) (session.Claims, error)
}

// AuthenticationFailure is a rejected sign-in, sign-up or password reset.
// Message is safe to show next to the form.
type AuthenticationFailure struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *AuthenticationFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthenticationFailure) Unwrap() error { return e.Err }

// IsAuthenticationFailure reports whether err is an *AuthenticationFailure.
func IsAuthenticationFailure(err error) bool {
	var target *AuthenticationFailure
	return errors.As(err, &target)
}

// AuthService runs the sign-in, sign-up and password flows against the
// gateway and hands issued tokens to the session.
type AuthService struct {
	gateway  AuthGateway
	adminURL string
	logger   *zap.Logger
}

// AuthDependencies encapsulates what the auth service needs.
type AuthDependencies struct {
	Gateway AuthGateway
	// AdminURL is the external portal administrators land on.
	AdminURL string
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{gateway: deps.Gateway, adminURL: deps.AdminURL, logger: logger}
}

// Issued is a token the gateway handed out that has not yet been turned
// into a session. Start consumes it.
type Issued struct {
	op     string
	token  string
	signup bool
}

// SignIn authenticates the user and starts a session. It returns the
// landing path for the signed-in role. If ctx is done before the backend
// answers, nothing is mutated and ctx's error is returned.
func (s *AuthService) SignIn(ctx context.Context, starter SessionStarter, username, password string) (string, error) {
	issued, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.Start(ctx, starter, issued)
}

// SignUp registers the user and starts a session on the returned token.
func (s *AuthService) SignUp(ctx context.Context, starter SessionStarter, req domain.RegisterRequest) (string, error) {
	issued, err := s.Register(ctx, req)
	if err != nil {
		return "", err
	}
	return s.Start(ctx, starter, issued)
}

// Authenticate asks the gateway for a token without touching any session
// state. Callers that may discard the answer use it with Start.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (Issued, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Issued{}, &AuthenticationFailure{Op: "sign in", Message: "Username and password are required"}
	}

	token, err := s.gateway.Authenticate(ctx, domain.AuthenticationRequest{Username: username, Password: password})
	if err != nil {
		return Issued{}, s.failure(ctx, "sign in", "Invalid username or password", err)
	}
	return Issued{op: "sign in", token: token}, nil
}

// Register creates the account and returns its first token without
// touching any session state.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (Issued, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return Issued{}, &AuthenticationFailure{Op: "sign up", Message: "Username, email and password are required"}
	}

	token, err := s.gateway.Register(ctx, req)
	if err != nil {
		return Issued{}, s.failure(ctx, "sign up", "Registration failed", err)
	}
	return Issued{op: "sign up", token: token, signup: true}, nil
}

// Start hands an issued token to starter and returns the landing path.
func (s *AuthService) Start(ctx context.Context, starter SessionStarter, issued Issued) (string, error) {
	if issued.token == "" {
		return "", &AuthenticationFailure{Op: "sign in", Message: "No session was issued"}
	}
	claims, err := s.start(ctx, starter, issued.op, issued.token)
	if err != nil {
		return "", err
	}
	if issued.signup {
		return SignupDetailsPath, nil
	}
	return s.LandingFor(claims.Role), nil
}

// LandingFor picks the first view shown after sign-in. The role is read
// from the client-decoded token and only selects a view.
func (s *AuthService) LandingFor(role session.Role) string {
	if role == session.RoleAdmin && s.adminURL != "" {
		return s.adminURL
	}
	return ProfilePath
}

// ForgotPassword requests a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, emailOrUsername string) error {
	emailOrUsername = strings.TrimSpace(emailOrUsername)
	if emailOrUsername == "" {
		return &AuthenticationFailure{Op: "forgot password", Message: "Email or username is required"}
	}
	if err := s.gateway.ForgotPassword(ctx, emailOrUsername); err != nil {
		return s.failure(ctx, "forgot password", "Could not send a reset link", err)
	}
	return nil
}

// ResetPassword sets a new password using the mailed reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirm string) error {
	switch {
	case strings.TrimSpace(token) == "":
		return &AuthenticationFailure{Op: "reset password", Message: "The reset link is missing its token"}
	case newPassword == "":
		return &AuthenticationFailure{Op: "reset password", Message: "A new password is required"}
	case newPassword != confirm:
		return &AuthenticationFailure{Op: "reset password", Message: "Passwords do not match"}
	}
	err := s.gateway.ResetPassword(ctx, domain.ResetPasswordRequest{Token: token, NewPassword: newPassword})
	if err != nil {
		return s.failure(ctx, "reset password", "The reset link is invalid or has expired", err)
	}
	return nil
}

// Verified reports whether the user confirmed their email address.
func (s *AuthService) Verified(ctx context.Context, emailOrUsername string) (bool, error) {
	return s.gateway.VerificationStatus(ctx, emailOrUsername)
}

// ResendConfirmation re-sends the confirmation mail.
func (s *AuthService) ResendConfirmation(ctx context.Context, emailOrUsername string) error {
	if err := s.gateway.ResendConfirmation(ctx, emailOrUsername); err != nil {
		return s.failure(ctx, "resend confirmation", "Could not resend the confirmation email", err)
	}
	return nil
}

func (s *AuthService) start(ctx context.Context, starter SessionStarter, op, token string) (session.Claims, error) {
	claims, err := starter.SignIn(ctx, token)
	if err == nil {
		return claims, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return claims, ctxErr
	}
	s.logger.Warn("unusable token from gateway", zap.String("op", op), zap.Error(err))
	if session.IsMalformed(err) || session.IsExpired(err) {
		return claims, &AuthenticationFailure{Op: op, Message: "The bank returned an unusable session, please try again", Err: err}
	}
	return claims, err
}

// failure maps a gateway error onto an AuthenticationFailure. A cancelled
// ctx is passed through untouched.
func (s *AuthService) failure(ctx context.Context, op, fallback string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden || msg == "" {
			msg = fallback
		}
		return &AuthenticationFailure{Op: op, Status: apiErr.Status, Message: msg, Err: err}
	case errors.Is(err, gateway.ErrEmptyToken):
		return &AuthenticationFailure{Op: op, Message: fallback, Err: err}
	}
	s.logger.Error("gateway unreachable", zap.String("op", op), zap.Error(err))
	return &AuthenticationFailure{Op: op, Message: "The bank is unavailable, please try again later", Err: err}
}

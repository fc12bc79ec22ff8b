package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/internal/notify"
	"github.com/prperemyshlev/auth-core/internal/repository"
	"github.com/prperemyshlev/auth-core/internal/utils"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	msgSignup           = "Account created! Please check your email to verify your account."
	msgEmailVerified    = "Email verified successfully!"
	msgVerificationSent = "Verification email sent!"
	msgForgotPassword   = "If an account exists with that email, we've sent a reset link."
	msgPasswordReset    = "Password reset successfully!"

	msgInvalidToken      = "Invalid token"
	msgInvalidRequest    = "Invalid request"
	msgInvalidResetLink  = "Invalid or expired reset link"
	msgPasswordTooShort  = "Password must be at least 6 characters"
	minPasswordLength    = 6
	usernameSuffixLength = 3
)

// Dependencies are the capabilities the auth service is built from
type Dependencies struct {
	Store    repository.Store
	Hasher   Hasher
	Issuer   TokenIssuer
	Notifier notify.Notifier
	Sessions SessionIssuer
	Logger   *zap.Logger
	Meter    metric.Meter
	// Now defaults to time.Now
	Now func() time.Time
}

// authService implements AuthService interface
type authService struct {
	store    repository.Store
	hasher   Hasher
	issuer   TokenIssuer
	notifier notify.Notifier
	sessions SessionIssuer
	logger   *zap.Logger
	metrics  *flowMetrics
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(deps Dependencies) AuthService {
	s := &authService{
		store:    deps.Store,
		hasher:   deps.Hasher,
		issuer:   deps.Issuer,
		notifier: deps.Notifier,
		sessions: deps.Sessions,
		logger:   deps.Logger,
		metrics:  newFlowMetrics(deps.Meter),
		now:      deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Signup creates a local account and sends the first verification link
func (s *authService) Signup(ctx context.Context, in SignupInput) (res *Result, err error) {
	defer func() { s.metrics.record(ctx, "signup", err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = utils.SanitizeEmail(in.Email)

	if verr := utils.ValidateStruct(in); verr != nil {
		return nil, &Error{Code: CodeValidation, Message: ErrValidation.Message, Fields: utils.FieldErrors(verr)}
	}

	log := s.logger.With(zap.String("flow", "signup"))

	_, err = s.store.Users().GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.serverError(log, "failed to check user existence", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.serverError(log, "failed to hash password", err)
	}

	username := in.Username
	user := &domain.User{
		Username:      &username,
		Email:         in.Email,
		PasswordHash:  &hash,
		Provider:      domain.ProviderLocal,
		EmailVerified: false,
	}

	var token string
	err = s.store.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Users().Create(ctx, user); err != nil {
			return err
		}
		var err error
		token, err = s.issueToken(ctx, store, domain.TokenKindEmailVerification, user.ID, utils.EmailVerificationTTL)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) || errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrAlreadyExists
		}
		return nil, s.serverError(log, "failed to create user", err)
	}

	nerr := s.notifier.SendVerificationEmail(ctx, user.Email, token)
	s.metrics.notification(ctx, "verification", nerr)
	if nerr != nil {
		log.Warn("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(nerr))
	}

	return &Result{Message: msgSignup}, nil
}

// VerifyEmail consumes a verification token and marks its owner verified
func (s *authService) VerifyEmail(ctx context.Context, token string) (res *Result, err error) {
	defer func() { s.metrics.record(ctx, "verify_email", err) }()

	if strings.TrimSpace(token) == "" {
		return nil, newError(CodeValidation, msgInvalidToken)
	}

	log := s.logger.With(zap.String("flow", "verify_email"))

	err = s.store.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		consumed, err := store.Tokens(domain.TokenKindEmailVerification).Consume(ctx, token, s.now().UTC())
		if err != nil {
			return err
		}
		return store.Users().MarkEmailVerified(ctx, consumed.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, s.serverError(log, "failed to verify email", err)
	}

	return &Result{Message: msgEmailVerified}, nil
}

// ResendVerification issues another verification token. Earlier tokens
// stay valid until they expire.
func (s *authService) ResendVerification(ctx context.Context, email string) (res *Result, err error) {
	defer func() { s.metrics.record(ctx, "resend_verification", err) }()

	email = utils.SanitizeEmail(email)
	if !utils.ValidateEmail(email) {
		return nil, ErrValidation
	}

	log := s.logger.With(zap.String("flow", "resend_verification"))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.serverError(log, "failed to get user", err)
	}

	if user.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	token, err := s.issueToken(ctx, s.store, domain.TokenKindEmailVerification, user.ID, utils.EmailVerificationTTL)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", user.ID)), "failed to issue verification token", err)
	}

	err = s.notifier.SendVerificationEmail(ctx, user.Email, token)
	s.metrics.notification(ctx, "verification", err)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", user.ID)), "failed to send verification email", err)
	}

	return &Result{Message: msgVerificationSent}, nil
}

// ForgotPassword sends a reset link when the account exists. The result
// is the same either way.
func (s *authService) ForgotPassword(ctx context.Context, email string) (res *Result, err error) {
	defer func() { s.metrics.record(ctx, "forgot_password", err) }()

	email = utils.SanitizeEmail(email)
	if !utils.ValidateEmail(email) {
		return nil, ErrValidation
	}

	log := s.logger.With(zap.String("flow", "forgot_password"))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Result{Message: msgForgotPassword}, nil
		}
		return nil, s.serverError(log, "failed to get user", err)
	}

	token, err := s.issueToken(ctx, s.store, domain.TokenKindPasswordReset, user.ID, utils.PasswordResetTTL)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", user.ID)), "failed to issue reset token", err)
	}

	nerr := s.notifier.SendPasswordResetEmail(ctx, user.Email, token)
	s.metrics.notification(ctx, "password_reset", nerr)
	if nerr != nil {
		log.Warn("Failed to send password reset email", zap.String("user_id", user.ID), zap.Error(nerr))
	}

	return &Result{Message: msgForgotPassword}, nil
}

// ResetPassword consumes a reset token and replaces its owner's password
func (s *authService) ResetPassword(ctx context.Context, token, password string) (res *Result, err error) {
	defer func() { s.metrics.record(ctx, "reset_password", err) }()

	if strings.TrimSpace(token) == "" || password == "" {
		return nil, newError(CodeValidation, msgInvalidRequest)
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, newError(CodeValidation, msgPasswordTooShort)
	}

	log := s.logger.With(zap.String("flow", "reset_password"))

	// Unknown and spent tokens are turned away before paying for a hash.
	// The consume below still decides the race between concurrent resets.
	pending, err := s.store.Tokens(domain.TokenKindPasswordReset).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(CodeInvalidOrExpired, msgInvalidResetLink)
		}
		return nil, s.serverError(log, "failed to get reset token", err)
	}
	if !pending.IsValid(s.now().UTC()) {
		return nil, newError(CodeInvalidOrExpired, msgInvalidResetLink)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", pending.UserID)), "failed to hash password", err)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		consumed, err := store.Tokens(domain.TokenKindPasswordReset).Consume(ctx, token, s.now().UTC())
		if err != nil {
			return err
		}
		return store.Users().UpdatePassword(ctx, consumed.UserID, hash)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(CodeInvalidOrExpired, msgInvalidResetLink)
		}
		return nil, s.serverError(log, "failed to reset password", err)
	}

	return &Result{Message: msgPasswordReset}, nil
}

// Login authenticates a local account
func (s *authService) Login(ctx context.Context, email, password string) (session *domain.Session, err error) {
	defer func() { s.metrics.record(ctx, "login", err) }()

	email = utils.SanitizeEmail(email)
	if !utils.ValidateEmail(email) || len([]rune(password)) < minPasswordLength {
		return nil, ErrInvalidCredentials
	}

	log := s.logger.With(zap.String("flow", "login"))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.serverError(log, "failed to get user", err)
	}

	if !user.HasPassword() || !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err = s.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", user.ID)), "failed to issue session", err)
	}

	return session, nil
}

// OAuthSignIn signs in the user asserted by an external provider,
// creating the account on first sign-in. An existing account with the
// same email is signed in as is; provider ids are never linked to it.
func (s *authService) OAuthSignIn(ctx context.Context, identity domain.Identity) (session *domain.Session, err error) {
	defer func() { s.metrics.record(ctx, "oauth_sign_in", err) }()

	identity.Email = utils.SanitizeEmail(identity.Email)
	if !identity.Provider.IsOAuth() || identity.ProviderID == "" || !utils.ValidateEmail(identity.Email) {
		return nil, ErrValidation
	}

	log := s.logger.With(zap.String("flow", "oauth_sign_in"), zap.String("provider", string(identity.Provider)))

	user, err := s.findOAuthUser(ctx, identity)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createOAuthUser(ctx, identity)
	}
	if err != nil {
		return nil, s.serverError(log, "failed to resolve oauth user", err)
	}

	session, err = s.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return nil, s.serverError(log.With(zap.String("user_id", user.ID)), "failed to issue session", err)
	}

	return session, nil
}

func (s *authService) findOAuthUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.store.Users().GetByProviderID(ctx, identity.Provider, identity.ProviderID)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return user, err
	}
	return s.store.Users().GetByEmail(ctx, identity.Email)
}

func (s *authService) createOAuthUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	username := strings.TrimSpace(identity.Name)
	if username == "" {
		username = utils.EmailLocalPart(identity.Email)
	}

	user := &domain.User{
		Username:      &username,
		Email:         identity.Email,
		Provider:      identity.Provider,
		EmailVerified: true,
	}
	user.SetProviderID(identity.Provider, identity.ProviderID)
	if identity.Avatar != "" {
		avatar := identity.Avatar
		user.Avatar = &avatar
	}

	err := s.store.Users().Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		suffix, serr := utils.RandomHex(usernameSuffixLength)
		if serr != nil {
			return nil, serr
		}
		retried := username + "-" + suffix
		user.ID = ""
		user.Username = &retried
		err = s.store.Users().Create(ctx, user)
	}
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// lost a race with a concurrent first sign-in for the same email
		return s.store.Users().GetByEmail(ctx, identity.Email)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.serverError(s.logger.With(zap.String("flow", "get_user")), "failed to get user", err)
	}
	return user, nil
}

// ValidateSession checks a session token without touching the store
func (s *authService) ValidateSession(_ context.Context, token string) (*domain.SessionClaims, error) {
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, newError(CodeInvalidCredentials, "Invalid or expired session")
	}
	return claims, nil
}

func (s *authService) issueToken(ctx context.Context, store repository.Store, kind domain.TokenKind, userID string, ttl time.Duration) (string, error) {
	token, expiresAt, err := s.issuer.Issue(ttl)
	if err != nil {
		return "", err
	}

	err = store.Tokens(kind).Create(ctx, &domain.VerificationToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *authService) serverError(log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err))
	return ErrServer
}

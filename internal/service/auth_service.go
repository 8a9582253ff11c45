package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/events"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/jwt"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/mail"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidDomain      = errors.New("only @un.org email addresses may register")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotWhitelisted     = errors.New("email is not authorized to register")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrTokenExpired       = errors.New("verification token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrRateLimited        = errors.New("too many requests, try again later")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrWhitelistInUse     = errors.New("a registered account exists for this email")
)

const (
	bcryptCost              = 12
	verificationTokenExpiry = 24 * time.Hour
	passwordResetExpiry     = 30 * time.Minute
)

type AuthService struct {
	users     repository.UserRepository
	whitelist repository.WhitelistRepository
	resets    repository.PasswordResetRepository
	mailer    mail.Mailer
	publisher events.EventPublisher

	// forgot-password limiters, keyed per email and per client IP
	limiterMu     sync.Mutex
	emailLimiters map[string]*rate.Limiter
	ipLimiters    map[string]*rate.Limiter
}

func NewAuthService(
	users repository.UserRepository,
	whitelist repository.WhitelistRepository,
	resets repository.PasswordResetRepository,
	mailer mail.Mailer,
	publisher events.EventPublisher,
) *AuthService {
	return &AuthService{
		users:         users,
		whitelist:     whitelist,
		resets:        resets,
		mailer:        mailer,
		publisher:     publisher,
		emailLimiters: make(map[string]*rate.Limiter),
		ipLimiters:    make(map[string]*rate.Limiter),
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Team      string
}

// Register creates an unverified account and sends the verification email.
// Email delivery failure is logged but does not fail registration; the user
// can request a new link.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	team := strings.TrimSpace(input.Team)

	if email == "" || input.Password == "" || firstName == "" || lastName == "" || team == "" {
		return nil, ErrMissingFields
	}
	if !strings.HasSuffix(email, "@un.org") {
		return nil, ErrInvalidDomain
	}
	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}

	whitelisted, err := s.whitelist.Contains(ctx, email)
	if err != nil {
		return nil, err
	}
	if !whitelisted {
		return nil, ErrNotWhitelisted
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(verificationTokenExpiry)

	user := &model.User{
		ID:                       uuid.New(),
		Email:                    email,
		PasswordHash:             string(hash),
		FirstName:                firstName,
		LastName:                 lastName,
		Team:                     team,
		EmailVerified:            false,
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Concurrent registration can slip past the duplicate pre-check.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if err := s.whitelist.LinkUser(ctx, email, user.ID); err != nil {
		slog.Error("failed to link whitelist entry", "email", email, "error", err)
	}

	if err := s.mailer.SendVerificationEmail(email, firstName, token); err != nil {
		slog.Error("failed to send verification email", "email", email, "error", err)
	}

	go func() {
		if err := s.publisher.PublishUserRegistered(events.UserRegisteredEvent{
			UserID:    user.ID.String(),
			Email:     user.Email,
			Team:      user.Team,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			slog.Error("failed to publish user registered event", "error", err)
		}
	}()

	return user, nil
}

// randomToken returns a 64-character hex token from 32 random bytes.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyEmail consumes a verification token. An unknown token is treated as
// already verified: email clients prefetch links, so the first hit may have
// consumed the token before the user's own click arrives.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		if decoded, decErr := url.QueryUnescape(token); decErr == nil && decoded != token {
			user, err = s.users.FindByVerificationToken(ctx, decoded)
			if err != nil {
				return err
			}
			if user != nil {
				token = decoded
			}
		}
	}
	if user == nil {
		slog.Warn("verification token not found, treating as already verified")
		return nil
	}
	if user.EmailVerified {
		return nil
	}
	if user.VerificationTokenExpires == nil || user.VerificationTokenExpires.Before(time.Now()) {
		return ErrTokenExpired
	}

	consumed, err := s.users.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost the race to a concurrent request; the account is verified
		// either way.
		slog.Info("verification token consumed concurrently", "user_id", user.ID)
	}
	return nil
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// Burn a comparison so response timing does not reveal whether the
		// account exists.
		bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidinvalidinvalidinvalid"), []byte(password))
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	access, refresh, err := jwt.GenerateTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := jwt.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := jwt.GenerateTokens(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) emailLimiter(email string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, ok := s.emailLimiters[email]
	if !ok {
		// 3 requests per 15 minutes
		l = rate.NewLimiter(rate.Every(5*time.Minute), 3)
		s.emailLimiters[email] = l
	}
	return l
}

func (s *AuthService) ipLimiter(ip string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, ok := s.ipLimiters[ip]
	if !ok {
		// 10 requests per 15 minutes
		l = rate.NewLimiter(rate.Every(90*time.Second), 10)
		s.ipLimiters[ip] = l
	}
	return l
}

// RequestPasswordReset issues a reset token. It never reveals whether the
// email has an account; unknown addresses return success.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, clientIP string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingFields
	}
	if !s.ipLimiter(clientIP).Allow() || !s.emailLimiter(email).Allow() {
		return ErrRateLimited
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.EmailVerified {
		// Same outcome as success so responses do not reveal account state.
		slog.Info("password reset requested for unknown or unverified email")
		return nil
	}

	if err := s.resets.InvalidateForUser(ctx, user.ID); err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	tokenHash, err := bcrypt.GenerateFromPassword([]byte(token), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash reset token: %w", err)
	}
	expires := time.Now().Add(passwordResetExpiry)
	if err := s.resets.Create(ctx, user.ID, string(tokenHash), expires, clientIP); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.FirstName, token); err != nil {
		slog.Error("failed to send password reset email", "error", err)
	}
	return nil
}

// findActiveReset locates the reset record matching a raw token. Tokens are
// stored hashed, so each active record is checked with bcrypt.
func (s *AuthService) findActiveReset(ctx context.Context, token string) (*model.PasswordReset, error) {
	resets, err := s.resets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range resets {
		if bcrypt.CompareHashAndPassword([]byte(resets[i].TokenHash), []byte(token)) == nil {
			return &resets[i], nil
		}
	}
	return nil, nil
}

func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	reset, err := s.findActiveReset(ctx, token)
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrInvalidResetToken
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	reset, err := s.findActiveReset(ctx, token)
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}
	// Any other outstanding resets for this user are dead now too.
	if err := s.resets.InvalidateForUser(ctx, reset.UserID); err != nil {
		slog.Error("failed to invalidate remaining resets", "error", err)
	}
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) UpdateName(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*model.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrMissingFields
	}
	if err := s.users.UpdateName(ctx, userID, firstName, lastName); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *AuthService) ListWhitelist(ctx context.Context) ([]model.WhitelistRow, error) {
	return s.whitelist.List(ctx)
}

func (s *AuthService) AddToWhitelist(ctx context.Context, email string, addedBy uuid.UUID) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingFields
	}
	if !strings.HasSuffix(email, "@un.org") {
		return ErrInvalidDomain
	}
	return s.whitelist.Add(ctx, email, addedBy)
}

func (s *AuthService) RemoveFromWhitelist(ctx context.Context, email string) error {
	registered, err := s.whitelist.HasRegisteredUser(ctx, email)
	if err != nil {
		return err
	}
	if registered {
		return ErrWhitelistInUse
	}
	removed, err := s.whitelist.Remove(ctx, email)
	if err != nil {
		return err
	}
	if !removed {
		return ErrUserNotFound
	}
	return nil
}

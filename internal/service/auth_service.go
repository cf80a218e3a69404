package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/utils"

	"github.com/oklog/ulid/v2"
)

var (
	ErrUserAlreadyExists  = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotVerified = errors.New("account is not verified, check your email for the code")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrInvalidFullName    = errors.New("full name is required")
	ErrInvalidCode        = errors.New("verification code must be 6 digits")
	ErrCodeMismatch       = errors.New("invalid or expired verification code")
)

const (
	// Cache key namespaces for the per-user role and display name. Both
	// are hints for instant reads; the database is always authoritative.
	roleNamespace = "userRole"
	nameNamespace = "userName"

	roleCacheTTL = 24 * time.Hour

	// RoleChangedChannel carries user ids whose role row changed
	RoleChangedChannel = "role.changed"

	resolveTimeout = 10 * time.Second
)

// SessionInfo is the observable coordinator state for one user
type SessionInfo struct {
	User        model.User `json:"user"`
	Role        string     `json:"role"`
	DisplayName string     `json:"display_name"`
}

// AuthService owns identity, session issuance, role resolution and the
// role-change subscription
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) error
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	VerifyCode(ctx context.Context, email, code string) (*model.Session, error)
	ResendCode(ctx context.Context, email string) error
	SignOut(ctx context.Context, userID string)
	// ResolveRole loads the user's role, bootstrapping a role row on
	// first resolution, and refreshes the cache. Safe to call
	// repeatedly; failures are logged and leave the role unresolved.
	ResolveRole(ctx context.Context, userID string) string
	ResolveDisplayName(ctx context.Context, userID string) string
	// CurrentRole is the cache read-through used on every guarded request
	CurrentRole(ctx context.Context, userID string) string
	GetSessionInfo(ctx context.Context, userID string) (*SessionInfo, error)
	UpdateUserRole(ctx context.Context, userID, role string) error
	// Run consumes role-change events until ctx is cancelled
	Run(ctx context.Context)
}

type authService struct {
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	profileRepo repository.ProfileRepository
	otp         *OTPService
	store       cache.Store
	jwtUtil     *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	profileRepo repository.ProfileRepository,
	otp *OTPService,
	store cache.Store,
	jwtUtil *utils.JWTUtil,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		profileRepo: profileRepo,
		otp:         otp,
		store:       store,
		jwtUtil:     jwtUtil,
	}
}

func newID() string {
	return ulid.Make().String()
}

// SignUp creates an unverified account and mails a verification code.
// No session is issued until the code is confirmed.
func (s *authService) SignUp(ctx context.Context, email, password, fullName string) error {
	if !utils.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if !utils.IsValidPassword(password) {
		return ErrInvalidPassword
	}
	if fullName == "" {
		return ErrInvalidFullName
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.Verified {
			return ErrUserAlreadyExists
		}
		// Unverified re-registration: just send a fresh code
		return s.otp.Issue(ctx, email)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		Verified:     false,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user in repository: %w", err)
	}

	return s.otp.Issue(ctx, email)
}

// SignIn authenticates a verified account and issues a session. Role and
// display name resolution runs detached; callers observing the session
// may briefly see a stale or empty role.
func (s *authService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials // Never distinguishes unknown account from wrong password
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.resolveDetached(user.ID)
	return session, nil
}

// VerifyCode exchanges a 6-digit code for a session, marking the account
// verified and guaranteeing a profile row exists
func (s *authService) VerifyCode(ctx context.Context, email, code string) (*model.Session, error) {
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	normalized := utils.NormalizeOTP(code)
	if len(normalized) != 6 {
		return nil, ErrInvalidCode
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, ErrCodeMismatch
	}

	ok, err := s.otp.Verify(ctx, email, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return nil, ErrCodeMismatch
	}

	if !user.Verified {
		if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to activate account: %w", err)
		}
		user.Verified = true
	}

	// Update-if-present else insert, carrying the sign-up name
	profile := &model.Profile{ID: user.ID, FullName: user.FullName, Email: user.Email}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.resolveDetached(user.ID)
	return session, nil
}

// ResendCode issues a fresh verification code for an unverified account
func (s *authService) ResendCode(ctx context.Context, email string) error {
	if !utils.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || user.Verified {
		// Do not reveal whether the address is registered
		return nil
	}
	return s.otp.Issue(ctx, email)
}

// SignOut clears the cached role and name for the user. Always succeeds
// from the caller's point of view; cache failures are only logged.
func (s *authService) SignOut(ctx context.Context, userID string) {
	if err := s.store.Delete(ctx, roleNamespace, userID); err != nil {
		log.Printf("Failed to clear cached role for %s: %v", userID, err)
	}
	if err := s.store.Delete(ctx, nameNamespace, userID); err != nil {
		log.Printf("Failed to clear cached name for %s: %v", userID, err)
	}
}

func (s *authService) issueSession(user *model.User) (*model.Session, error) {
	// Best-effort cached role; the guard re-resolves on every request
	role, _ := s.store.Get(context.Background(), roleNamespace, user.ID)

	token, expiresAt, err := s.jwtUtil.GenerateToken(user.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.Session{AccessToken: token, User: *user, ExpiresAt: expiresAt}, nil
}

// resolveDetached kicks off role and name resolution without awaiting
// it. There is deliberately no result channel back to the triggering
// operation; consumers observe the coordinator state instead.
func (s *authService) resolveDetached(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		s.ResolveRole(ctx, userID)
		s.ResolveDisplayName(ctx, userID)
	}()
}

func (s *authService) ResolveRole(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	role, err := s.roleRepo.FindByUser(ctx, userID)
	if err != nil {
		// Leaves the role unresolved; the next request retries
		log.Printf("Failed to resolve role for %s: %v", userID, err)
		return ""
	}

	var resolved string
	if role != nil {
		resolved = role.Role
	} else {
		resolved, err = s.roleRepo.EnsureRole(ctx, userID)
		if err != nil {
			log.Printf("Failed to bootstrap role for %s: %v", userID, err)
			return ""
		}
	}

	if err := s.store.Set(ctx, roleNamespace, userID, resolved, roleCacheTTL); err != nil {
		log.Printf("Failed to cache role for %s: %v", userID, err)
	}
	return resolved
}

func (s *authService) ResolveDisplayName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to resolve display name for %s: %v", userID, err)
		return ""
	}
	if profile == nil {
		if err := s.store.Delete(ctx, nameNamespace, userID); err != nil {
			log.Printf("Failed to clear cached name for %s: %v", userID, err)
		}
		return ""
	}

	if err := s.store.Set(ctx, nameNamespace, userID, profile.FullName, roleCacheTTL); err != nil {
		log.Printf("Failed to cache name for %s: %v", userID, err)
	}
	return profile.FullName
}

// CurrentRole returns the cached role, falling back to a full resolution
// on a miss
func (s *authService) CurrentRole(ctx context.Context, userID string) string {
	role, err := s.store.Get(ctx, roleNamespace, userID)
	if err == nil && role != "" {
		return role
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Role cache read failed for %s: %v", userID, err)
	}
	return s.ResolveRole(ctx, userID)
}

// GetSessionInfo exposes the coordinator state for the session endpoint
func (s *authService) GetSessionInfo(ctx context.Context, userID string) (*SessionInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	info := &SessionInfo{User: *user, Role: s.CurrentRole(ctx, userID)}

	name, err := s.store.Get(ctx, nameNamespace, userID)
	if err != nil {
		name = s.ResolveDisplayName(ctx, userID)
	}
	info.DisplayName = name
	return info, nil
}

// UpdateUserRole sets a user's role and publishes the change so every
// process re-resolves its cache
func (s *authService) UpdateUserRole(ctx context.Context, userID, role string) error {
	if role != model.RoleAdmin && role != model.RoleUser {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := s.roleRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	if err := s.store.Publish(ctx, RoleChangedChannel, userID); err != nil {
		log.Printf("Failed to publish role change for %s: %v", userID, err)
	}
	return nil
}

// Run consumes the role-change stream. Each event re-triggers
// ResolveRole for the affected user; the handler is idempotent so
// reordered or duplicated deliveries are harmless.
func (s *authService) Run(ctx context.Context) {
	events := s.store.Subscribe(ctx, RoleChangedChannel)
	log.Printf("Role change subscriber started on %q", RoleChangedChannel)
	for userID := range events {
		s.ResolveRole(ctx, userID)
	}
	log.Println("Role change subscriber stopped")
}

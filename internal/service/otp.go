package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"storefront/internal/cache"
	"storefront/internal/mailer"
)

var ErrTooManyCodeRequests = errors.New("too many verification codes requested, try again later")

const (
	otpNamespace       = "otpCode"
	otpResendNamespace = "otpIssued"
	otpTTL             = 10 * time.Minute
	otpResendWindow    = time.Hour
	otpMaxPerWindow    = 5
)

// OTPService issues and verifies email one-time codes. Codes live in
// redis with a TTL and are consumed on successful verification.
type OTPService struct {
	store cache.Store
	mail  mailer.Mailer
}

// NewOTPService creates a new OTPService
func NewOTPService(store cache.Store, mail mailer.Mailer) *OTPService {
	return &OTPService{store: store, mail: mail}
}

// Issue generates a 6-digit code, stores it keyed by email and mails it
func (s *OTPService) Issue(ctx context.Context, email string) error {
	count, err := s.store.IncrWithExpire(ctx, otpResendNamespace, email, otpResendWindow)
	if err != nil {
		return fmt.Errorf("failed to track code issuance: %w", err)
	}
	if count > otpMaxPerWindow {
		return ErrTooManyCodeRequests
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.store.Set(ctx, otpNamespace, email, code, otpTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes()))
	if err := s.mail.Send(email, "Verify your account", body); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// Verify checks a normalized 6-digit code and consumes it on success
func (s *OTPService) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.store.Get(ctx, otpNamespace, email)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil // Expired or never issued
	}
	if err != nil {
		return false, fmt.Errorf("failed to load verification code: %w", err)
	}
	if stored != code {
		return false, nil
	}
	// Consume so a code cannot be replayed
	if err := s.store.Delete(ctx, otpNamespace, email); err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package notify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"telecaller-platform/pkg/utils"
)

var (
	ErrRateLimited = errors.New("notify: too many otp requests")
	ErrOTPExpired  = errors.New("notify: otp expired or not found")
	ErrOTPMismatch = errors.New("notify: otp code mismatch")
)

const otpLength = 6

// OTPStore persists issued codes until they expire or are consumed.
type OTPStore interface {
	Save(ctx context.Context, destination, code string, expiresAt time.Time) error
	// Consume checks the code and deletes it on success. A wrong code
	// leaves the stored value in place for another attempt.
	Consume(ctx context.Context, destination, code string) error
}

// OTPService issues and verifies one-time codes over email or SMS.
// Redis is optional; a nil client disables the per-destination rate
// limit.
type OTPService struct {
	email EmailSender
	sms   SMSSender
	store OTPStore
	rdb   *redis.Client
	log   *slog.Logger

	ttl        time.Duration
	rateMax    int
	rateWindow time.Duration
	clock      func() time.Time
}

func NewOTPService(email EmailSender, sms SMSSender, store OTPStore, rdb *redis.Client, ttl time.Duration, rateMax int, rateWindow time.Duration, log *slog.Logger) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &OTPService{
		email:      email,
		sms:        sms,
		store:      store,
		rdb:        rdb,
		log:        log,
		ttl:        ttl,
		rateMax:    rateMax,
		rateWindow: rateWindow,
		clock:      time.Now,
	}
}

// SendEmailOTP issues a code and mails it to the destination.
func (s *OTPService) SendEmailOTP(ctx context.Context, to string) error {
	if s.email == nil {
		return errors.New("notify: email sender not configured")
	}
	code, err := s.issue(ctx, to)
	if err != nil {
		return err
	}
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It is valid for %d minutes. Do not share it with anyone.",
		code, int(s.ttl.Minutes()))
	if err := s.email.SendEmail(ctx, to, subject, body); err != nil {
		return err
	}
	s.log.Info("otp email sent", "to", maskDestination(to))
	return nil
}

// SendSMSOTP issues a code and texts it to the destination.
func (s *OTPService) SendSMSOTP(ctx context.Context, to string) error {
	if s.sms == nil {
		return errors.New("notify: sms sender not configured")
	}
	code, err := s.issue(ctx, to)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Your OTP is %s. Valid for %d minutes. Do not share with anyone.",
		code, int(s.ttl.Minutes()))
	if err := s.sms.SendSMS(ctx, to, msg); err != nil {
		return err
	}
	s.log.Info("otp sms sent", "to", maskDestination(to))
	return nil
}

// Verify consumes the code for a destination.
func (s *OTPService) Verify(ctx context.Context, destination, code string) error {
	return s.store.Consume(ctx, normalizeDestination(destination), strings.TrimSpace(code))
}

func (s *OTPService) issue(ctx context.Context, destination string) (string, error) {
	destination = normalizeDestination(destination)
	if destination == "" {
		return "", errors.New("notify: destination is required")
	}
	if err := s.checkRate(ctx, destination); err != nil {
		return "", err
	}
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := s.store.Save(ctx, destination, code, s.clock().Add(s.ttl)); err != nil {
		return "", err
	}
	return code, nil
}

func (s *OTPService) checkRate(ctx context.Context, destination string) error {
	if s.rdb == nil || s.rateMax <= 0 {
		return nil
	}
	ok, err := utils.AllowFixedWindow(ctx, s.rdb, "otp:rate:"+destination, s.rateMax, s.rateWindow)
	if err != nil {
		// Redis being down must not block verification mail.
		s.log.Warn("otp rate check failed, allowing", "error", err)
		return nil
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("notify: generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpLength, n), nil
}

func normalizeDestination(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// maskDestination keeps logs free of full contact details.
func maskDestination(d string) string {
	if len(d) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}

// MemoryOTPStore keeps codes in process memory. Suitable for a single
// instance and for tests; swap for a shared store when scaling out.
type MemoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]memoryOTP
	clock func() time.Time
}

type memoryOTP struct {
	code      string
	expiresAt time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: make(map[string]memoryOTP), clock: time.Now}
}

func (m *MemoryOTPStore) Save(_ context.Context, destination, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[destination] = memoryOTP{code: code, expiresAt: expiresAt}
	return nil
}

func (m *MemoryOTPStore) Consume(_ context.Context, destination, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.codes[destination]
	if !ok || m.clock().After(entry.expiresAt) {
		delete(m.codes, destination)
		return ErrOTPExpired
	}
	if entry.code != code {
		return ErrOTPMismatch
	}
	delete(m.codes, destination)
	return nil
}

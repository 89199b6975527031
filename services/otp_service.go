package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/logging"
)

type OTPType string

const (
	OTPTypeEmailVerification OTPType = "EMAIL_VERIFICATION"
	OTPTypePhoneVerification OTPType = "PHONE_VERIFICATION"
	OTPTypeLogin             OTPType = "LOGIN"
)

// CodeStore keeps hashed one-time codes for a limited time. Production runs
// on redis; tests swap in an in-memory implementation.
type CodeStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Del(ctx context.Context, key string) error
}

type redisCodeStore struct {
	client *redis.Client
}

func (s redisCodeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s redisCodeStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s redisCodeStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// OTPService issues and verifies one-time codes. Codes live in the store
// under otp:<subject>:<type> with a TTL, stored bcrypt-hashed. Delivery
// (email/SMS) is out of scope; issued codes are logged instead.
type OTPService struct {
	store   CodeStore
	ttl     time.Duration
	deliver func(subject string, otpType OTPType, code string)
}

func NewOTPService(redisClient *redis.Client, ttlMinutes int) *OTPService {
	return &OTPService{
		store: redisCodeStore{client: redisClient},
		ttl:   time.Duration(ttlMinutes) * time.Minute,
	}
}

func UserSubject(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func AdminSubject(adminID uint) string {
	return fmt.Sprintf("admin:%d", adminID)
}

func (s *OTPService) Generate(ctx context.Context, subject string, otpType OTPType) (string, error) {
	code, err := generateOTPCode(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	if err := s.store.Set(ctx, otpKey(subject, otpType), string(hash), s.ttl); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	return code, nil
}

func (s *OTPService) Verify(ctx context.Context, subject string, otpType OTPType, code string) error {
	key := otpKey(subject, otpType)

	hash, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load otp: %w", err)
	}
	if !ok {
		return apierror.BadRequest("OTP expired or not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return apierror.BadRequest("Invalid OTP code")
	}

	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}

	return nil
}

// Dispatch stands in for the delivery channel.
func (s *OTPService) Dispatch(subject string, otpType OTPType, code string) {
	if s.deliver != nil {
		s.deliver(subject, otpType, code)
		return
	}
	logging.Log.Infof("OTP for %s (%s): %s", subject, otpType, code)
}

func otpKey(subject string, otpType OTPType) string {
	return fmt.Sprintf("otp:%s:%s", subject, otpType)
}

func generateOTPCode(length int) (string, error) {
	max := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

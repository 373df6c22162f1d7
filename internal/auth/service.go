package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"forestblock/marketplace/marketplace-backend/internal/config"
)

var (
	// ErrInvalidOTP is returned when the supplied code does not match
	ErrInvalidOTP = errors.New("invalid code")
	// ErrOTPExpired is returned when the code exists but its window has passed
	ErrOTPExpired = errors.New("code expired")
)

// Claims are the JWT claims issued on a successful OTP verification
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements OTP-based email authentication
type Service struct {
	db      *gorm.DB
	sender  EmailSender
	captcha CaptchaVerifier
	cfg     config.AuthConfig
	logger  *zap.Logger
}

// NewService creates a new auth service. captcha may be nil when
// enforcement is disabled.
func NewService(db *gorm.DB, sender EmailSender, captcha CaptchaVerifier, cfg config.AuthConfig, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		sender:  sender,
		captcha: captcha,
		cfg:     cfg,
		logger:  logger,
	}
}

// RequestOTP issues a fresh one-time code for the email and sends it.
// CAPTCHA is enforced only when configuration says so (production).
func (s *Service) RequestOTP(ctx context.Context, email, captchaToken string) error {
	if s.cfg.CaptchaRequired && s.captcha != nil {
		if err := s.captcha.Verify(ctx, captchaToken); err != nil {
			return err
		}
	}

	code, err := generateCode(s.cfg.OTPLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A new code invalidates any outstanding ones for the address.
		if err := tx.Model(&OTPCode{}).
			Where("email = ? AND consumed = false", email).
			Update("consumed", true).Error; err != nil {
			return err
		}
		return tx.Create(&OTPCode{
			ID:        uuid.New(),
			Email:     email,
			CodeHash:  string(hash),
			ExpiresAt: time.Now().UTC().Add(s.cfg.OTPTTL),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return err
	}

	s.logger.Info("OTP requested", zap.String("email", email))
	return nil
}

// VerifyOTP checks a code, upserts the user, and returns a signed
// session token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, *User, error) {
	var otp OTPCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND consumed = false", email).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidOTP
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load code: %w", err)
	}

	if time.Now().UTC().After(otp.ExpiresAt) {
		return "", nil, ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		return "", nil, ErrInvalidOTP
	}

	now := time.Now().UTC()
	var user User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&otp).Update("consumed", true).Error; err != nil {
			return err
		}
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = User{ID: uuid.New(), Email: email}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Model(&user).Update("last_login_at", now).Error
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify code: %w", err)
	}
	user.LastLoginAt = &now

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return token, &user, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// SetWallet attaches a wallet address to the user
func (s *Service) SetWallet(ctx context.Context, id uuid.UUID, wallet string) error {
	if err := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update("wallet_address", wallet).Error; err != nil {
		return fmt.Errorf("failed to set wallet: %w", err)
	}
	return nil
}

func (s *Service) issueToken(user *User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// generateCode produces an n-digit numeric code with crypto randomness
func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrCaptchaFailed is returned when reCAPTCHA verification rejects the
// supplied token
var ErrCaptchaFailed = errors.New("captcha verification failed")

// CaptchaVerifier checks a client-supplied CAPTCHA token
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

// RecaptchaVerifier verifies tokens against Google's siteverify endpoint
type RecaptchaVerifier struct {
	secret     string
	httpClient *http.Client
}

// NewRecaptchaVerifier creates a reCAPTCHA verifier
func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks the token
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) error {
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://www.google.com/recaptcha/api/siteverify",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode captcha response: %w", err)
	}
	if !result.Success {
		return ErrCaptchaFailed
	}
	return nil
}

package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"earsip/internal/config"
)

func SignURL(path string, expiresAt int64, secret string) string {
	signature := computeSignature(path, expiresAt, secret)
	return fmt.Sprintf("%s?exp=%d&sig=%s", path, expiresAt, signature)
}

func ValidateSignature(path string, expiresAt int64, signature, secret string) bool {
	expected := computeSignature(path, expiresAt, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ShareService hands out expiring links to letter attachments that work
// without a session.
type ShareService struct {
	secret  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewShareService(cfg config.Config) *ShareService {
	return &ShareService{
		secret:  cfg.ShareSecret,
		baseURL: cfg.BaseURL,
		ttl:     cfg.ShareTTL,
		now:     time.Now,
	}
}

// FilePath is the public path of a letter's attachment.
func FilePath(letterID string) string {
	return fmt.Sprintf("/files/%s", letterID)
}

func (s *ShareService) Generate(letterID string) (string, time.Time) {
	expiresAt := s.now().Add(s.ttl)
	signedPath := SignURL(FilePath(letterID), expiresAt.Unix(), s.secret)
	return s.baseURL + signedPath, expiresAt
}

func (s *ShareService) Validate(path string, expires int64, signature string) bool {
	return ValidateSignature(path, expires, signature, s.secret)
}

// Expired reports whether a link expiring at expires is no longer valid.
func (s *ShareService) Expired(expires int64) bool {
	return expires < s.now().Unix()
}

func computeSignature(path string, expiresAt int64, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(fmt.Sprintf("%s:%d", path, expiresAt)))
	sig := h.Sum(nil)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sig)
}

package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/securebank/bank-portal/internal/session"
)

const sealInfo = "bank-portal token file v1"

type fileRecord struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// File persists the token in a single file with owner-only permissions.
// When a secret is configured the record is sealed with ChaCha20-Poly1305.
type File struct {
	mu   sync.Mutex
	path string
	key  []byte
	ttl  time.Duration
	now  session.Clock
}

// NewFile builds a file-backed store.
func NewFile(cfg Config) (*File, error) {
	if cfg.File == nil || cfg.File.Path == "" {
		return nil, fmt.Errorf("file token store requires a path")
	}
	f := &File{
		path: cfg.File.Path,
		ttl:  ttlOrDefault(cfg.TTL, 0),
		now:  time.Now,
	}
	if cfg.File.Secret != "" {
		key, err := deriveKey(cfg.File.Secret)
		if err != nil {
			return nil, err
		}
		f.key = key
	}
	return f, nil
}

// WithClock replaces the store's clock.
func (f *File) WithClock(now session.Clock) *File {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
	return f
}

// DefaultFilePath returns the token file location under the user's config
// directory.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bank-portal", "token")
}

func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive token file key: %w", err)
	}
	return key, nil
}

func (f *File) Set(_ context.Context, token string, ttl time.Duration) error {
	rec := fileRecord{Token: token, ExpiresAt: f.now().Add(ttlOrDefault(ttl, f.ttl)).UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if f.key != nil {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Get(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", session.ErrNoToken
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	if f.key != nil {
		if data, err = f.open(data); err != nil {
			return "", err
		}
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("decode token file: %w", err)
	}
	if rec.Token == "" || !f.now().Before(rec.ExpiresAt) {
		_ = os.Remove(f.path)
		return "", session.ErrNoToken
	}
	return rec.Token, nil
}

func (f *File) Remove(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (f *File) seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (f *File) open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("token file too short")
	}
	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	return plain, nil
}

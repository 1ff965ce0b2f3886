package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stored is what an idempotency key remembers. Status 0 means the first
// request is still running.
type Stored struct {
	Hash        string `json:"hash"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type KeyStore interface {
	// Reserve claims key for a request. It returns nil when the key was
	// free, otherwise what is stored under it.
	Reserve(ctx context.Context, key, hash string, ttl time.Duration) (*Stored, error)
	Complete(ctx context.Context, key string, s Stored, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RedisKeys struct {
	c *redis.Client
}

func NewRedisKeys(c *redis.Client) *RedisKeys { return &RedisKeys{c: c} }

func (k *RedisKeys) Reserve(ctx context.Context, key, hash string, ttl time.Duration) (*Stored, error) {
	pending, err := json.Marshal(Stored{Hash: hash})
	if err != nil {
		return nil, err
	}
	// the key can expire between SETNX and GET; one more round settles it
	for range 2 {
		ok, err := k.c.SetNX(ctx, key, pending, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, nil
		}
		raw, err := k.c.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var s Stored
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode idempotency entry %s: %w", key, err)
		}
		return &s, nil
	}
	return nil, fmt.Errorf("idempotency key %s keeps expiring", key)
}

func (k *RedisKeys) Complete(ctx context.Context, key string, s Stored, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return k.c.Set(ctx, key, raw, ttl).Err()
}

func (k *RedisKeys) Release(ctx context.Context, key string) error {
	return k.c.Del(ctx, key).Err()
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// requestHash is method|uri|body|user.
func requestHash(r *http.Request, body []byte, userID int64) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{'\n'})
	h.Write([]byte(r.URL.RequestURI()))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(fmt.Sprint(userID)))
	return hex.EncodeToString(h.Sum(nil))
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Reusing a key for a different request, or while the first one is still
// running, is a conflict. Server errors release the key so the client can
// retry.
func Idempotency(keys KeyStore, ttl time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if !mutating(r.Method) || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 128 {
				writeJSON(w, http.StatusBadRequest, errorBody{Message: "Idempotency-Key too long"})
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
			if err != nil {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: "request body too large"})
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			c := callerFrom(r)
			slot := fmt.Sprintf("idem:%d:%s", c.UserID, key)
			hash := requestHash(r, body, c.UserID)

			stored, err := keys.Reserve(r.Context(), slot, hash, ttl)
			if err != nil {
				log.Error("idempotency lookup failed", "key", slot, "err", err)
				writeJSON(w, http.StatusInternalServerError, errorBody{Message: "idempotency lookup failed"})
				return
			}
			if stored != nil {
				switch {
				case stored.Hash != hash:
					writeJSON(w, http.StatusConflict, errorBody{Message: "Idempotency-Key reuse with different request"})
				case stored.Status == 0:
					writeJSON(w, http.StatusConflict, errorBody{Message: "request with this Idempotency-Key is in progress"})
				default:
					if stored.ContentType != "" {
						w.Header().Set("Content-Type", stored.ContentType)
					}
					w.Header().Set("Idempotent-Replay", "true")
					w.WriteHeader(stored.Status)
					_, _ = w.Write(stored.Body)
				}
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK, keep: true}
			next.ServeHTTP(rec, r)

			ctx := context.WithoutCancel(r.Context())
			if rec.status >= http.StatusInternalServerError {
				if err := keys.Release(ctx, slot); err != nil {
					log.Warn("idempotency release failed", "key", slot, "err", err)
				}
				return
			}
			if err := keys.Complete(ctx, slot, Stored{
				Hash:        hash,
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}, ttl); err != nil {
				log.Warn("idempotency store failed", "key", slot, "err", err)
			}
		})
	}
}

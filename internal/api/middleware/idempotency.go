package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	idempotencyPrefix = "idempotency:"
	processingMarker  = "PROCESSING"
	lockTTL           = 10 * time.Second
	completedTTL      = 24 * time.Hour
)

// Idempotency guards state-changing requests carrying an Idempotency-Key.
// A replayed key answers 409 with the stored response; server errors release
// the key so the client may retry. Redis failures let the request through.
func Idempotency(redisClient *redis.Client, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			idemKey := idempotencyPrefix + key
			ctx := r.Context()

			acquired, err := redisClient.SetNX(ctx, idemKey, processingMarker, lockTTL).Result()
			if err != nil {
				logger.Warn("idempotency store unavailable, passing request through", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				replay(w, redisClient, r, idemKey)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				redisClient.Del(ctx, idemKey)
				return
			}

			stored := rec.body.Bytes()
			if !json.Valid(stored) {
				stored, _ = json.Marshal(string(stored))
			}
			if err := redisClient.Set(ctx, idemKey, stored, completedTTL).Err(); err != nil {
				logger.Warn("failed to store idempotent response", "key", key, "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, redisClient *redis.Client, r *http.Request, idemKey string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotency-Hit", "true")

	val, err := redisClient.Get(r.Context(), idemKey).Result()
	if err != nil || val == processingMarker {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "concurrent request"}`))
		return
	}

	w.WriteHeader(http.StatusConflict)
	w.Write([]byte(fmt.Sprintf(`{"error": "request already processed", "original_response": %s}`, val)))
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

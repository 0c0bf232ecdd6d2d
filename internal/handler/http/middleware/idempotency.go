package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/response"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

func idempotencyKeys(employeeID int64, key string) (lockKey, responseKey string) {
	base := fmt.Sprintf("idempotency:%d:%s", employeeID, key)
	return base + ":lock", base + ":response"
}

// Idempotency replays the stored response of an earlier request carrying
// the same Idempotency-Key from the same employee. A duplicate that
// arrives while the first is still running gets 409. Redis failures let
// the request through unprotected.
func Idempotency(rdb redis.Cmdable, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 255 {
				response.BadRequest(w, "Idempotency-Key must not exceed 255 characters", nil)
				return
			}
			p, err := access.PrincipalFrom(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := r.Context()
			lockKey, responseKey := idempotencyKeys(p.EmployeeID, key)

			stored, err := rdb.Get(ctx, responseKey).Result()
			switch {
			case err == nil:
				var cached cachedResponse
				if err := json.Unmarshal([]byte(stored), &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write([]byte(cached.Body))
					return
				}
				slog.Warn("Discarding unreadable idempotent response", "key", responseKey)
			case !errors.Is(err, redis.Nil):
				slog.Error("Idempotency lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := rdb.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
			if err != nil {
				slog.Error("Idempotency lock failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				response.Conflict(w, "A request with this Idempotency-Key is already in progress")
				return
			}
			defer func() {
				if err := rdb.Del(ctx, lockKey).Err(); err != nil {
					slog.Error("Idempotency unlock failed", "error", err)
				}
			}()

			var body bytes.Buffer
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			if ww.Status() == 0 || ww.Status() >= http.StatusInternalServerError {
				return
			}
			data, err := json.Marshal(cachedResponse{
				Status:      ww.Status(),
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.String(),
			})
			if err != nil {
				return
			}
			if err := rdb.Set(ctx, responseKey, string(data), ttl).Err(); err != nil {
				slog.Error("Idempotency store failed", "error", err)
			}
		})
	}
}

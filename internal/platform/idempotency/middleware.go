package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/httpx"
)

const (
	headerKey    = "Idempotency-Key"
	headerReplay = "X-Idempotent-Replay"
)

type middlewareConfig struct {
	ttl    time.Duration
	clock  func() time.Time
	logger func(event string, err error)
}

// Option customises middleware behaviour.
type Option func(*middlewareConfig)

// WithTTL bounds how long completed responses stay replayable.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithErrorLogger reports store failures that the client never sees.
func WithErrorLogger(logger func(event string, err error)) Option {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// Middleware enforces idempotency for requests carrying an Idempotency-Key
// header. Requests without the header pass through untouched; the guard is an
// opt-in for clients that retry.
func Middleware(store Store, opts ...Option) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		ttl:    DefaultTTL,
		clock:  time.Now,
		logger: func(string, error) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(headerKey))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := bufferBody(r)
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}

			userID := requesterID(r)
			scoped := ScopeKey(key, userID)
			fingerprint := Fingerprint(r.Method, r.URL.Path, userID, body)
			now := cfg.clock().UTC()

			reservation, err := store.Reserve(r.Context(), scoped, fingerprint, now, cfg.ttl)
			if errors.Is(err, ErrFingerprintMismatch) {
				httpx.WriteError(r.Context(), w, httpx.NewError("idempotency_key_conflict", "idempotency key already used for a different request", http.StatusConflict))
				return
			}
			if err != nil {
				cfg.logger("idempotency.reserve_failed", err)
				httpx.WriteError(r.Context(), w, httpx.NewError("idempotency_unavailable", "unable to process idempotency key", http.StatusInternalServerError))
				return
			}

			switch reservation.State {
			case StateCompleted:
				replay(w, reservation.Record)
				return
			case StatePending:
				httpx.WriteError(r.Context(), w, httpx.NewError("request_in_progress", "another request with this idempotency key is still processing", http.StatusConflict))
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if err := store.Complete(r.Context(), scoped, recorder.status, recorder.Header().Get("Content-Type"), recorder.body.Bytes(), cfg.clock().UTC(), cfg.ttl); err != nil {
				cfg.logger("idempotency.complete_failed", err)
				if releaseErr := store.Release(r.Context(), scoped); releaseErr != nil {
					cfg.logger("idempotency.release_failed", releaseErr)
				}
			}
		})
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func requesterID(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil {
		return identity.UserID
	}
	return ""
}

func replay(w http.ResponseWriter, record Record) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(headerReplay, "true")
	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		_, _ = w.Write(record.ResponseBody)
	}
}

// responseRecorder tees the handler's response so a copy can be stored for
// replays while the original still reaches the client.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

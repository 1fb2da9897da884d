// Package idempotency guards mutating endpoints against double submission.
// Clients opt in by sending an Idempotency-Key header; the first request runs
// normally and its response is stored, retries with the same key replay the
// stored response instead of running the handler again.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// DefaultTTL bounds how long a completed record stays replayable.
const DefaultTTL = 24 * time.Hour

// ErrFingerprintMismatch is returned when a key is reused for a request whose
// method, path, body, or caller differ from the original.
var ErrFingerprintMismatch = errors.New("idempotency: key reused for a different request")

// State describes the outcome of reserving a key.
type State int

const (
	// StateNew means the key was unused and the request may proceed.
	StateNew State = iota
	// StateCompleted means a stored response exists and should be replayed.
	StateCompleted
	// StatePending means an earlier request holding the key has not finished.
	StatePending
)

// Record is the stored outcome of the first request with a given key.
type Record struct {
	Key            string
	Fingerprint    string
	Completed      bool
	ResponseStatus int
	ResponseBody   []byte
	ContentType    string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Reservation reports the state of a key and, when completed, its record.
type Reservation struct {
	State  State
	Record Record
}

// Store persists reservations and their responses.
type Store interface {
	// Reserve claims the key for the fingerprint, returning the existing
	// reservation when one is live. A reuse with a different fingerprint
	// fails with ErrFingerprintMismatch.
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	// Complete stores the response to replay for later retries.
	Complete(ctx context.Context, key string, status int, contentType string, body []byte, now time.Time, ttl time.Duration) error
	// Release frees a pending key after a failed attempt so the client can retry.
	Release(ctx context.Context, key string) error
}

// ScopeKey namespaces the client-supplied key by the caller's identity so two
// users sending the same key never collide.
func ScopeKey(key, userID string) string {
	key = strings.TrimSpace(key)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "anonymous"
	}
	return hashHex([]byte(userID + "|" + key))
}

// Fingerprint condenses the parts of a request that must match for a retry to
// count as the same operation.
func Fingerprint(method, path, userID string, body []byte) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteString("|")
	b.WriteString(path)
	b.WriteString("|")
	b.WriteString(userID)
	b.WriteString("|")
	if len(body) > 0 {
		b.WriteString(hashHex(body))
	}
	return hashHex([]byte(b.String()))
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package auth is the session collaborator the engine consults lazily before
// any write. A missing session is re-established on demand; if that fails the
// write is not attempted and ErrUnavailable is surfaced to the caller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnavailable means no session could be established before a write.
var ErrUnavailable = errors.New("not authenticated")

type Session struct {
	ActorID   string
	Token     string
	ExpiresAt time.Time
}

// Authenticator provides the current session and a re-authenticate operation.
type Authenticator interface {
	Current() (Session, bool)
	Reauthenticate(ctx context.Context) (Session, error)
}

// Local mints HS256 session tokens for a single local actor. It models the
// anonymous re-sign-in the app performs when the session is lost.
type Local struct {
	Secret  []byte
	ActorID string
	TTL     time.Duration
	Now     func() time.Time

	mu      sync.Mutex
	current Session
}

func NewLocal(secret, actorID string) *Local {
	return &Local{
		Secret:  []byte(secret),
		ActorID: actorID,
		TTL:     time.Hour,
		Now:     time.Now,
	}
}

func (l *Local) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Local) Current() (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current.Token == "" || !l.now().Before(l.current.ExpiresAt) {
		return Session{}, false
	}
	return l.current, true
}

func (l *Local) Reauthenticate(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(l.Secret) == 0 {
		return Session{}, fmt.Errorf("%w: signing secret not configured", ErrUnavailable)
	}
	if strings.TrimSpace(l.ActorID) == "" {
		return Session{}, fmt.Errorf("%w: actor id not configured", ErrUnavailable)
	}
	now := l.now()
	exp := now.Add(l.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   l.ActorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(l.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s := Session{ActorID: l.ActorID, Token: signed, ExpiresAt: exp}
	l.mu.Lock()
	l.current = s
	l.mu.Unlock()
	return s, nil
}

// ParseToken validates an HS256 session token and returns its subject.
func ParseToken(token, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("subject claim required")
	}
	return claims.Subject, nil
}

type actorKey struct{}

// WithActor tags the context with the acting user for audit events.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom extracts the acting user from the context, if any.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// Package pin is the local device-lock collaborator: a numeric PIN kept as a
// bcrypt hash in the store's settings collection. It gates the presentation
// layer only; nothing in the engine consults it.
package pin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ritech/internal/store"
)

const settingKey = "device_pin_hash"

// DefaultPIN is used until the owner sets one.
const DefaultPIN = "1234"

var ErrMismatch = errors.New("wrong PIN")

type Lock struct {
	Store     *store.SQLite
	MinLength int
}

func New(st *store.SQLite, minLength int) *Lock {
	if minLength < 4 {
		minLength = 4
	}
	return &Lock{Store: st, MinLength: minLength}
}

// Set replaces the device PIN.
func (l *Lock) Set(ctx context.Context, pin string) error {
	if len(pin) < l.MinLength {
		return fmt.Errorf("PIN must be at least %d digits", l.MinLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("PIN must be numeric")
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return l.Store.PutSetting(ctx, settingKey, string(hash))
}

// Verify checks a PIN attempt. With no PIN stored yet the default applies.
func (l *Lock) Verify(ctx context.Context, pin string) error {
	hash, err := l.Store.GetSetting(ctx, settingKey)
	if errors.Is(err, store.ErrNotFound) {
		if pin == DefaultPIN {
			return nil
		}
		return ErrMismatch
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return ErrMismatch
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/pkg/events"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
)

// Reason strips the sentinel prefix so the rest can be shown to clients.
func Reason(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrInvalidCredentials, ErrNotFound, ErrConflict} {
		if p := sentinel.Error() + ": "; strings.HasPrefix(msg, p) {
			return msg[len(p):]
		}
	}
	return msg
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s not found with id: %d", ErrNotFound, what, id)
	}
	return err
}

// publish never fails the caller: the database write already happened.
func publish(ctx context.Context, pub events.Publisher, topic, key, eventType string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, events.NewEnvelope(eventType, payload)); err != nil {
		logging.FromContext(ctx).Error("publish_error", "topic", topic, "type", eventType, "error", err)
	}
}

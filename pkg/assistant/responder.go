package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Responder produces the assistant's answer for a message. The local resolver never
// fails; a remote backend may.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

// ResponderFunc adapts a function to a Responder
type ResponderFunc func(ctx context.Context, text string) (string, error)

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// DelayedResponder waits a fixed delay before answering, standing in for a network
// round trip to a future backend
type DelayedResponder struct {
	Next  Responder
	Delay time.Duration
}

// Respond waits for the delay and then asks Next
func (d *DelayedResponder) Respond(ctx context.Context, text string) (string, error) {
	if d.Delay > 0 {
		timer := time.NewTimer(d.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return d.Next.Respond(ctx, text)
}

// ResponderFactory builds the responder for a chat in the given language
type ResponderFactory func(lang string) Responder

// NewResponderFactory answers from kb, waiting delay before each answer when positive
func NewResponderFactory(kb *KnowledgeBase, delay time.Duration, logger *zap.Logger) ResponderFactory {
	return func(lang string) Responder {
		var responder Responder = NewResolver(kb, LoadLocalizer(lang)).WithLogger(logger)
		if delay > 0 {
			responder = &DelayedResponder{Next: responder, Delay: delay}
		}
		return responder
	}
}

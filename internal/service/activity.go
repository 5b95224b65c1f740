package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/connecthub/internal/model"
)

// NopPublisher drops every event.  It is used when no activity stream is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.ActivityEvent) error { return nil }

// emit publishes ev in the background so a slow broker never delays the
// response.  The event gets its own short deadline.
func emit(p ActivityPublisher, ev model.ActivityEvent) {
	if p == nil {
		return
	}
	if ev.Occurred.IsZero() {
		ev.Occurred = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			log.Printf("activity: publish %s failed: %v", ev.Type, err)
		}
	}()
}

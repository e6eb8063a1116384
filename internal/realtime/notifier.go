package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// Notifier publishes project mutation events to the redis channel. Delivery
// is best-effort: failures are logged and never surface to the mutation that
// triggered them. A nil *Notifier is valid and drops every event.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) ProjectsChanged(action string, projectID int64) {
	if n == nil || n.client == nil {
		return
	}

	data, err := json.Marshal(Event{Action: action, ProjectID: projectID})
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := n.client.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("realtime: publish %s %d: %v", action, projectID, err)
	}
}

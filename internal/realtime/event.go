package realtime

// Channel is the redis pub/sub channel carrying project mutation events.
const Channel = "projects:events"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is the payload published on every successful project mutation.
// Subscribers treat it as "something changed" and re-fetch authoritative
// state; the payload carries no project data beyond the id.
type Event struct {
	Action    string `json:"action"`
	ProjectID int64  `json:"project_id"`
}

package messaging

import "time"

// EventTransition is published on TopicEventLifecycle for every state change
type EventTransition struct {
	EventID   int64     `json:"eventId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   int64     `json:"actorId"`
	CollegeID *int64    `json:"collegeId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// MaintenanceReport is published on TopicMaintenance after each batch job
type MaintenanceReport struct {
	Job      string    `json:"job"`
	Checked  int       `json:"checked"`
	Changed  int       `json:"changed"`
	Affected []int64   `json:"affected"`
	RanAt    time.Time `json:"ranAt"`
}

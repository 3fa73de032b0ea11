package session

import "time"

// Session is the durable per-user conversation state. UserID is the
// canonical phone number of the WhatsApp conversation; Payload is the
// accumulated step data for the current flow.
type Session struct {
	UserID         string         `bson:"_id" json:"userId"`
	Step           string         `bson:"step" json:"step"`
	Payload        map[string]any `bson:"payload" json:"payload"`
	LastActivityAt time.Time      `bson:"lastActivityAt" json:"lastActivityAt"`
}

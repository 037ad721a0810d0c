package domain

import "time"

type UserID string

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message exchange unit (user or model) in a conversation.
type Turn struct {
	Role Role
	Text string
}

type Timestamp = time.Time

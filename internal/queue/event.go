// Package queue defines audit events emitted by the auth flow and moves them
// over RabbitMQ. Payloads never carry passwords, hashes or tokens.
package queue

// Event is a message payload published to the queue named by EventName.
type Event interface {
    EventName() string
}

// Queue names.
const (
    UserRegisteredQueue = "user.registered"
    LoginQueue          = "auth.login"
)

// UserRegisteredEvent is published after a new account is stored.
type UserRegisteredEvent struct {
    UserID       uint64 `json:"user_id"`
    Name         string `json:"name"`
    Email        string `json:"email"`
    Role         string `json:"role"`
    RegisteredAt string `json:"registered_at"`
}

func (UserRegisteredEvent) EventName() string { return UserRegisteredQueue }

// LoginEvent is published for every login attempt. UserID is zero when the
// identifier matched nobody.
type LoginEvent struct {
    Identifier string `json:"identifier"`
    UserID     uint64 `json:"user_id,omitempty"`
    Success    bool   `json:"success"`
    At         string `json:"at"`
}

func (LoginEvent) EventName() string { return LoginQueue }

package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventRegistrationConfirmed EventType = "registration-confirmed"
	EventRegistrationCancelled EventType = "registration-cancelled"
)

// RegistrationEvent is the payload of the registration topics.
type RegistrationEvent struct {
	RegistrationID string   `msgpack:"registration_id"`
	TournamentID   string   `msgpack:"tournament_id"`
	TournamentName string   `msgpack:"tournament_name"`
	UserID         string   `msgpack:"user_id"`
	PlayerName     string   `msgpack:"player_name"`
	Events         []string `msgpack:"events"`
	TotalAmount    float64  `msgpack:"total_amount"`
	PaymentID      string   `msgpack:"payment_id"`
}

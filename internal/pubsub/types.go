package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType is the topic a message is published to.
type EventType string

const (
	EventRequestCreated  EventType = "match-request-created"
	EventRequestAccepted EventType = "match-request-accepted"
	EventRequestRejected EventType = "match-request-rejected"

	// Deletion events published by the user and skill services.
	EventUserDeleted  EventType = "user-deleted"
	EventSkillDeleted EventType = "skill-deleted"
	EventMatchDeleted EventType = "match-deleted"
)

// PushEnvelope is the body Pub/Sub POSTs to a push subscription endpoint.
type PushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		MessageID  string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

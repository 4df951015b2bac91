package domain

// WebhookEvent is a verified webhook delivery
type WebhookEvent struct {
	Topic     string
	Shop      string
	WebhookID string
	Payload   []byte
	Verified  bool
}

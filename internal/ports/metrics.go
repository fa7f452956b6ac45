package ports

// Recorder receives business events for metrics
type Recorder interface {
	PreOrderSaved(result string)
	WaitlistJoined(result string)
	WaitlistNotified(count int)
	PlanGateDenied(variant string)
	WebhookProcessed(topic, status string)
}

package connectors

const (
	TopicMessageStore = "message.store"
)

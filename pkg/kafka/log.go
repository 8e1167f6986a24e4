package kafka

// Log is the debug record written for every published or consumed message.
type Log struct {
	Mode          string `json:"mode"`
	CorrelationID string `json:"correlation_id"`
	MessageValue  string `json:"message_value"`
	Topic         string `json:"topic"`
	Host          string `json:"host"`
	PubSubBackend string `json:"pubsub_backend"`
	Time          int64  `json:"time"`
}

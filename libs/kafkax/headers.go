package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID     = "event_id"
	HeaderEventType   = "event_type"
	HeaderAggregateID = "aggregate_id"
	HeaderContentType = "content-type"

	contentTypeJSON = "application/json"
)

// Meta identifies an event on the wire. Consumers dedupe on EventID.
type Meta struct {
	EventID     string
	EventType   string
	AggregateID string
}

// Headers renders m as Kafka headers. Empty fields are omitted.
func (m Meta) Headers() []kafka.Header {
	headers := make([]kafka.Header, 0, 4)
	add := func(key, value string) {
		if value != "" {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
		}
	}
	add(HeaderEventID, m.EventID)
	add(HeaderEventType, m.EventType)
	add(HeaderAggregateID, m.AggregateID)
	add(HeaderContentType, contentTypeJSON)
	return headers
}

// MetaFromHeaders is the inverse of Meta.Headers.
func MetaFromHeaders(headers []kafka.Header) Meta {
	return Meta{
		EventID:     HeaderValue(headers, HeaderEventID),
		EventType:   HeaderValue(headers, HeaderEventType),
		AggregateID: HeaderValue(headers, HeaderAggregateID),
	}
}

// HeaderValue returns the last value for key, or "".
func HeaderValue(headers []kafka.Header, key string) string {
	for i := len(headers) - 1; i >= 0; i-- {
		if headers[i].Key == key {
			return string(headers[i].Value)
		}
	}
	return ""
}

// SplitBrokers parses a comma separated KAFKA_BROKERS value.
func SplitBrokers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' })
	brokers := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			brokers = append(brokers, f)
		}
	}
	return brokers
}

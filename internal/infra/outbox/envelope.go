package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	appoutbox "frontdesk/internal/app/outbox"
)

const (
	eventVersionSuffix = ".v1"
	cloudEventsType    = "application/cloudevents+json"
)

var ErrInvalidEnvelope = errors.New("outbox: invalid event envelope")

// Envelope is the CloudEvents 1.0 structured form published to the broker.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

// Encode wraps rec in an envelope. The record ID becomes the event ID so
// consumers can drop redeliveries.
func Encode(rec appoutbox.EventRecord, source string) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, fmt.Errorf("%w: payload of %s is not json", ErrInvalidEnvelope, rec.Name)
	}
	env := Envelope{
		SpecVersion:     "1.0",
		ID:              rec.ID,
		Type:            rec.Name + eventVersionSuffix,
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt,
		DataContentType: "application/json",
		Data:            rec.Payload,
		TraceParent:     rec.Headers["traceparent"],
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": cloudEventsType}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// Decode turns a published envelope back into an event record.
func Decode(payload []byte) (appoutbox.EventRecord, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return appoutbox.EventRecord{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.ID == "" || env.Type == "" {
		return appoutbox.EventRecord{}, fmt.Errorf("%w: id and type are required", ErrInvalidEnvelope)
	}
	rec := appoutbox.EventRecord{
		ID:         env.ID,
		Name:       strings.TrimSuffix(env.Type, eventVersionSuffix),
		Payload:    []byte(env.Data),
		OccurredAt: env.Time,
		Aggregate:  env.Subject,
		Headers:    map[string]string{},
	}
	if env.TraceParent != "" {
		rec.Headers["traceparent"] = env.TraceParent
	}
	return rec, nil
}

// TopicFor maps an event name to its aggregate topic: "stay.created" is
// published on "stay.events.v1".
func TopicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return base + ".events" + eventVersionSuffix
}

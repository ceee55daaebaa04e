package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/digigrow/agency-site/internal/leads"
)

type badEvent struct{}

func (badEvent) EventType() string { return "" }

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type memoryPublisher struct {
	envs []Envelope
	err  error
}

func (m *memoryPublisher) Publish(_ context.Context, env Envelope) error {
	if m.err != nil {
		return m.err
	}
	m.envs = append(m.envs, env)
	return nil
}

func TestNewEnvelope(t *testing.T) {
	fixedNow := time.Unix(0, 123456000).UTC()
	prevNow := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	defer func() { nowFunc = prevNow }()

	id := uuid.MustParse("9a20d7d1-bf6a-4d33-bd55-5d25a816f1a8")
	env, err := NewEnvelope(" lead:abc ", LeadStatusChangedV1{LeadID: "abc", Status: "lost"}, WithEventID(id))
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.EventID != id {
		t.Fatalf("expected event id override, got %s", env.EventID)
	}
	if env.TimestampMicros != fixedNow.UnixMicro() {
		t.Fatalf("unexpected timestamp: %d", env.TimestampMicros)
	}
	if env.EventType != TypeLeadStatusChanged {
		t.Fatalf("unexpected type: %s", env.EventType)
	}
	if env.Aggregate != "lead:abc" {
		t.Fatalf("unexpected aggregate: %s", env.Aggregate)
	}
}

func TestNewEnvelope_Rejects(t *testing.T) {
	if _, err := NewEnvelope("", LeadCreatedV1{}); !errors.Is(err, errMissingAggregate) {
		t.Fatalf("expected missing aggregate, got %v", err)
	}
	if _, err := NewEnvelope("lead:1", nil); !errors.Is(err, errNilEvent) {
		t.Fatalf("expected nil event error, got %v", err)
	}
	if _, err := NewEnvelope("lead:1", badEvent{}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

func TestSQSPublisher_Publish(t *testing.T) {
	fake := &fakeSQS{}
	pub := newSQSPublisher(fake, "http://localhost:4566/000000000000/lead-events")

	env, _ := NewEnvelope("lead:1", LeadStatusChangedV1{LeadID: "1", Status: "new"})
	if err := pub.Publish(context.Background(), env); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.QueueUrl) != "http://localhost:4566/000000000000/lead-events" {
		t.Fatalf("unexpected queue url %s", aws.ToString(in.QueueUrl))
	}
	if got := aws.ToString(in.MessageAttributes["event_type"].StringValue); got != TypeLeadStatusChanged {
		t.Fatalf("unexpected event_type attribute %q", got)
	}
	var decoded Envelope
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	if decoded.EventID != env.EventID {
		t.Fatalf("expected event id %s, got %s", env.EventID, decoded.EventID)
	}
}

func TestSQSPublisher_Error(t *testing.T) {
	pub := newSQSPublisher(&fakeSQS{err: errors.New("throttled")}, "q")
	env, _ := NewEnvelope("lead:1", LeadStatusChangedV1{LeadID: "1"})
	if err := pub.Publish(context.Background(), env); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSQSPublisher_RequiresQueue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without queue url")
		}
	}()
	newSQSPublisher(&fakeSQS{}, "")
}

func TestLeadEvents_LeadCreated(t *testing.T) {
	pub := &memoryPublisher{}
	le := NewLeadEvents(pub, nil)

	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	err := le.LeadCreated(context.Background(), &leads.Lead{
		ID:        "lead-1",
		Name:      "Asha",
		Phone:     "9876543210",
		Source:    leads.DefaultSource,
		Status:    leads.StatusNew,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("lead created: %v", err)
	}
	if len(pub.envs) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.envs))
	}
	env := pub.envs[0]
	if env.EventType != TypeLeadCreated || env.Aggregate != "lead:lead-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	var payload LeadCreatedV1
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Status != "new" || !payload.OccurredAt.Equal(created) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestLeadEvents_StatusChanged(t *testing.T) {
	pub := &memoryPublisher{}
	le := NewLeadEvents(pub, nil)

	if err := le.StatusChanged(context.Background(), "lead-1", leads.StatusConverted); err != nil {
		t.Fatalf("status changed: %v", err)
	}
	var payload LeadStatusChangedV1
	if err := json.Unmarshal(pub.envs[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.LeadID != "lead-1" || payload.Status != "converted" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestLeadEvents_PublishError(t *testing.T) {
	le := NewLeadEvents(&memoryPublisher{err: errors.New("queue down")}, nil)
	if err := le.StatusChanged(context.Background(), "lead-1", leads.StatusLost); err == nil {
		t.Fatal("expected error")
	}
}

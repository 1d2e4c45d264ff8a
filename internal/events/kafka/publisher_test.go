package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Owujuah/Finatera/internal/models/events"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	ev := events.TransferCompleted{
		TransferID:   "tx-1",
		SenderID:     "acc-1",
		ReceiverName: "Jane Doe",
		Amount:       decimal.RequireFromString("250.00"),
		BalanceAfter: decimal.RequireFromString("750.00"),
		OccurredAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), events.TopicTransferCompleted, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != events.TopicTransferCompleted {
		t.Fatalf("topic=%q", msg.Topic)
	}
	if string(msg.Key) != "acc-1" {
		t.Fatalf("key=%q want acc-1", msg.Key)
	}

	var got events.TransferCompleted
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if got.TransferID != "tx-1" || !got.BalanceAfter.Equal(ev.BalanceAfter) {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestPublishUnkeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	if err := p.Publish(context.Background(), "misc", map[string]string{"a": "b"}); err != nil {
		t.Fatal(err)
	}
	if w.msgs[0].Key != nil {
		t.Fatalf("expected no key, got %q", w.msgs[0].Key)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{writer: &fakeWriter{err: boom}}

	if err := p.Publish(context.Background(), "t", struct{}{}); !errors.Is(err, boom) {
		t.Fatalf("want wrapped writer error, got %v", err)
	}
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	if err := p.Publish(context.Background(), "t", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if len(w.msgs) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	if err := (&Publisher{writer: w}).Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%v", err, w.closed)
	}
}

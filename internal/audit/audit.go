package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Outcome is the terminal state of a Determine call for a host that requested a token.
type Outcome string

const (
	OutcomeIssued       Outcome = "issued"
	OutcomeSkippedNoKey Outcome = "skipped_no_key"
	OutcomeFailed       Outcome = "failed"
)

// Event is one issuance decision. It never carries the signed token.
type Event struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Outcome   Outcome   `json:"outcome"`
	Host      string    `json:"host"`
	Target    string    `json:"target"`
	Subject   string    `json:"sub,omitempty"`
	Algorithm string    `json:"alg,omitempty"`
	KeyID     string    `json:"kid,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Sink receives events from the queue goroutine.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Record(ctx context.Context, event Event) { f(ctx, event) }

// JSONLines writes one JSON object per event, newline terminated.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (s *JSONLines) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}

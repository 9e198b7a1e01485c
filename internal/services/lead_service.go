// Package services – LeadService
//
// This file implements LeadService, which runs one lead submission through
// the capture flow: insert into the lead store, then forward a hashed Lead
// conversion event. The store write is authoritative and its failure stops
// the flow. The forward is best-effort: its result is returned as a
// ForwardOutcome and never turns into an error.
//
// Observability: Submit and both steps are OpenTelemetry spans, and each
// step increments a Prometheus counter labelled by outcome.
package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-lead-capture/internal/capi"
	"github.com/tbourn/go-lead-capture/internal/domain"
)

// Forward outcome labels.
const (
	ForwardDelivered = "delivered"
	ForwardFailed    = "failed"
	ForwardSkipped   = "skipped"
)

var (
	leadsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_stored_total",
			Help: "Lead store inserts by outcome.",
		},
		[]string{"store", "outcome"},
	)
	capiEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capi_events_total",
			Help: "Conversion events forwarded by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(leadsStored, capiEvents)
}

// LeadStore inserts a submission and returns the stored row(s) as the
// backend echoes them.
type LeadStore interface {
	Insert(ctx context.Context, sub domain.LeadSubmission) ([]domain.Row, error)
	Name() string
}

// EventForwarder delivers conversion events to the ad platform.
type EventForwarder interface {
	Send(ctx context.Context, events ...capi.Event) (*capi.Receipt, error)
}

// ForwardOutcome is the result of the best-effort forward step.
type ForwardOutcome struct {
	Status  string // ForwardDelivered, ForwardFailed or ForwardSkipped
	Event   capi.Event
	Receipt *capi.Receipt
	Err     error
}

// Delivered reports whether the platform accepted the event.
func (o ForwardOutcome) Delivered() bool { return o.Status == ForwardDelivered }

// SubmitResult carries the stored rows and the forward outcome.
type SubmitResult struct {
	Rows    []domain.Row
	Forward ForwardOutcome
}

// LeadService coordinates the store write and the conversion forward.
type LeadService struct {
	Store     LeadStore
	Forwarder EventForwarder // nil disables forwarding
	Source    string         // custom_data.source tag
	Now       func() time.Time

	// ForwardTimeout bounds the forward step. 0 leaves only the request
	// context as a limit.
	ForwardTimeout time.Duration
}

// NewLeadService constructs a LeadService using the wall clock and no
// forward deadline of its own.
func NewLeadService(store LeadStore, fwd EventForwarder, source string) *LeadService {
	return &LeadService{Store: store, Forwarder: fwd, Source: source, Now: time.Now}
}

// Submit stores sub and, only if that succeeded, forwards a Lead event.
// A store failure is returned as *StoreWriteError. Forward failures are
// reported in SubmitResult.Forward and never returned as an error.
func (s *LeadService) Submit(ctx context.Context, sub domain.LeadSubmission) (*SubmitResult, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	rows, err := s.store(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return nil, err
	}

	out := s.forward(ctx, sub)
	span.SetAttributes(attribute.String("capi.outcome", out.Status))
	return &SubmitResult{Rows: rows, Forward: out}, nil
}

func (s *LeadService) store(ctx context.Context, sub domain.LeadSubmission) ([]domain.Row, error) {
	if s.Store == nil {
		return nil, &StoreWriteError{Err: ErrNoStore}
	}
	name := s.Store.Name()

	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "store", trace.WithAttributes(attribute.String("lead.store", name)))
	defer span.End()

	rows, err := s.Store.Insert(ctx, sub)
	if err != nil {
		leadsStored.WithLabelValues(name, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &StoreWriteError{Store: name, Err: err}
	}
	leadsStored.WithLabelValues(name, "ok").Inc()
	span.SetAttributes(attribute.Int("lead.rows", len(rows)))
	return rows, nil
}

func (s *LeadService) forward(ctx context.Context, sub domain.LeadSubmission) ForwardOutcome {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ev := capi.NewLeadEvent(sub, s.Source, now())
	if s.Forwarder == nil {
		capiEvents.WithLabelValues(ForwardSkipped).Inc()
		return ForwardOutcome{Status: ForwardSkipped, Event: ev}
	}

	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "forward")
	defer span.End()

	if s.ForwardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ForwardTimeout)
		defer cancel()
	}

	rec, err := s.Forwarder.Send(ctx, ev)
	if err != nil {
		capiEvents.WithLabelValues(ForwardFailed).Inc()
		span.RecordError(err)
		return ForwardOutcome{Status: ForwardFailed, Event: ev, Err: err}
	}
	capiEvents.WithLabelValues(ForwardDelivered).Inc()
	return ForwardOutcome{Status: ForwardDelivered, Event: ev, Receipt: rec}
}

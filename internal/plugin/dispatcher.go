// Package plugin implements the action/opName/info request protocol spoken by
// the tool-calling host.
package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/rs/zerolog"

	"github.com/statusrelay/statusrelay/internal/metrics"
	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
)

// Recognized values of the envelope "action" field.
const (
	ActionRequest = "request"
	ActionInfo    = "info"
)

// StatusFetcher fetches a normalized status table for a service key.
type StatusFetcher interface {
	GetTable(ctx context.Context, key string) (*status.Table, error)
}

// Response is the outcome of dispatching one envelope.
type Response struct {
	// Status is the transport status code.
	Status int

	// Body is serialized as JSON.
	Body any
}

// Fail returns the response for a protocol failure of kind k.
func Fail(k ErrorKind) Response {
	return Response{Status: k.HTTPStatus(), Body: k.Failure()}
}

func ok(body any) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// envelope is the decoded top-level request object.
type envelope struct {
	fields map[string]json.RawMessage
}

func (e envelope) field(name string) (json.RawMessage, bool) {
	raw, present := e.fields[name]
	return raw, present
}

// stringField returns the named field when it is a JSON string.
func (e envelope) stringField(name string) (string, bool) {
	raw, present := e.fields[name]
	if !present || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

type actionHandler func(ctx context.Context, env envelope) Response

// operation runs one opName. A returned error selects the failure kind via KindOf.
type operation func(ctx context.Context, info json.RawMessage) (any, error)

// Config holds the dispatcher dependencies.
type Config struct {
	// Registry is the service catalogue. Required.
	Registry *service.Registry

	// Fetcher performs status lookups. Required.
	Fetcher StatusFetcher

	// Logger receives operation failures.
	Logger zerolog.Logger

	// Metrics counts dispatched operations (optional).
	Metrics *metrics.Metrics
}

// Dispatcher routes envelopes through an action table and, for "request",
// an operation table keyed by opName. It holds no per-request state.
type Dispatcher struct {
	registry   *service.Registry
	fetcher    StatusFetcher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	capability Capability
	actions    map[string]actionHandler
	operations map[string]operation
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		registry:   cfg.Registry,
		fetcher:    cfg.Fetcher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		capability: Describe(cfg.Registry),
	}

	d.actions = map[string]actionHandler{
		ActionRequest: d.handleRequest,
		ActionInfo:    d.handleInfo,
	}
	d.operations = map[string]operation{
		OpGetServiceStatus:              d.getServiceStatus,
		OpGetEnumServices:               d.getEnumServices,
		OpServiceStatusForEnumServiceID: d.serviceStatusForEnumServiceID,
	}

	return d
}

// Capability returns the descriptor served for action "info".
func (d *Dispatcher) Capability() Capability {
	return d.capability
}

// Operations returns the recognized opName values in sorted order.
func (d *Dispatcher) Operations() []string {
	names := make([]string, 0, len(d.operations))
	for name := range d.operations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch decodes body as an envelope and routes it.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) Response {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		d.metrics.IncOperation("envelope", BadBodyFormat.Code())
		return Fail(BadBodyFormat)
	}
	env := envelope{fields: fields}

	action, found := env.stringField("action")
	if !found {
		d.metrics.IncOperation("envelope", ActionNotFound.Code())
		return Fail(ActionNotFound)
	}

	handler, known := d.actions[action]
	if !known {
		d.metrics.IncOperation("envelope", BadAction.Code())
		return Fail(BadAction)
	}

	return handler(ctx, env)
}

func (d *Dispatcher) handleInfo(_ context.Context, _ envelope) Response {
	d.metrics.IncOperation(ActionInfo, "ok")
	return ok(d.capability)
}

func (d *Dispatcher) handleRequest(ctx context.Context, env envelope) Response {
	opName, found := env.stringField("opName")
	if !found {
		d.metrics.IncOperation("envelope", BadOpName.Code())
		return Fail(BadOpName)
	}

	info, found := env.field("info")
	if !found {
		d.metrics.IncOperation("envelope", BadOpInfo.Code())
		return Fail(BadOpInfo)
	}

	op, known := d.operations[opName]
	if !known {
		d.metrics.IncOperation("unknown", UnknownOpName.Code())
		return Fail(UnknownOpName)
	}

	result, err := op(ctx, info)
	if err != nil {
		kind := KindOf(err)
		d.metrics.IncOperation(opName, kind.Code())
		return Fail(kind)
	}

	d.metrics.IncOperation(opName, "ok")
	return ok(result)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

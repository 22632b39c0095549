package plugin

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
)

var errInfoNotObject = errors.New("info must be a JSON object")

// serviceStatusInfo is the info payload of getServiceStatus.
type serviceStatusInfo struct {
	Service *string `json:"service"`
}

// EnumEntries is the result of getEnumServices.
type EnumEntries struct {
	Info    any             `json:"info"`
	Entries []service.Entry `json:"entries"`
}

// Invocation is the result of resolving a context action into a tool call.
type Invocation struct {
	Name string         `json:"name"`
	Args InvocationArgs `json:"args"`
}

// InvocationArgs carries the service value exactly as the caller sent it.
type InvocationArgs struct {
	Service json.RawMessage `json:"service"`
}

func (d *Dispatcher) getServiceStatus(ctx context.Context, info json.RawMessage) (any, error) {
	if !isObject(info) {
		d.logger.Error().Err(errInfoNotObject).Str("op", OpGetServiceStatus).Msg("bad request info")
		return nil, &Error{Kind: BadReqInfoFormat, Err: errInfoNotObject}
	}

	var req serviceStatusInfo
	if err := json.Unmarshal(info, &req); err != nil {
		d.logger.Error().Err(err).Str("op", OpGetServiceStatus).Msg("bad request info")
		return nil, &Error{Kind: BadReqInfoFormat, Err: err}
	}

	key := d.registry.DefaultKey()
	if req.Service != nil {
		key = *req.Service
	}

	table, err := d.fetcher.GetTable(ctx, key)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("service", key).
			Str("outcome", status.Outcome(err)).
			Msg("status lookup failed")
		return nil, &Error{Kind: BadResponse, Err: err}
	}

	return table, nil
}

func (d *Dispatcher) getEnumServices(_ context.Context, _ json.RawMessage) (any, error) {
	return EnumEntries{Info: nil, Entries: d.registry.Entries()}, nil
}

// serviceStatusForEnumServiceID reads info.info.service and turns it into a
// getServiceStatus invocation. Any value found there is passed through unchanged.
func (d *Dispatcher) serviceStatusForEnumServiceID(_ context.Context, info json.RawMessage) (any, error) {
	svc, found := pointer(info, "info", "service")
	if !found {
		fallback, err := json.Marshal(d.registry.DefaultKey())
		if err != nil {
			return nil, err
		}
		svc = fallback
	}

	return Invocation{
		Name: OpGetServiceStatus,
		Args: InvocationArgs{Service: svc},
	}, nil
}

// pointer walks nested objects by key. It reports false when any step is
// missing or not an object.
func pointer(raw json.RawMessage, path ...string) (json.RawMessage, bool) {
	cur := raw
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil || obj == nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

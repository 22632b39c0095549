package plugin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusrelay/statusrelay/internal/metrics"
	"github.com/statusrelay/statusrelay/internal/plugin"
	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
)

// fakeProvider serves a fixed document and counts calls.
type fakeProvider struct {
	doc   *status.Document
	err   error
	calls atomic.Int32
	last  atomic.Value
}

func (p *fakeProvider) GetComponents(_ context.Context, svc service.Descriptor) (*status.Document, error) {
	p.calls.Add(1)
	p.last.Store(svc.Key)
	if p.err != nil {
		return nil, p.err
	}
	return p.doc, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func apiDocument() *status.Document {
	return &status.Document{
		Page: status.Page{ID: "p1", Name: "GitHub"},
		Components: []status.Component{
			{Name: "API", Status: "operational", UpdatedAt: "2024-01-01T00:00:00Z"},
		},
	}
}

func newDispatcher(t *testing.T, provider *fakeProvider) (*plugin.Dispatcher, *metrics.Metrics) {
	t.Helper()
	reg := service.Default()
	m := metrics.New()
	svc := status.NewService(status.ServiceConfig{
		Registry: reg,
		Provider: provider,
		Logger:   zerolog.Nop(),
		Metrics:  m,
	})
	return plugin.New(plugin.Config{
		Registry: reg,
		Fetcher:  svc,
		Logger:   zerolog.Nop(),
		Metrics:  m,
	}), m
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDispatch_Info(t *testing.T) {
	provider := &fakeProvider{doc: apiDocument()}
	d, _ := newDispatcher(t, provider)

	resp := d.Dispatch(context.Background(), []byte(`{"action":"info"}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(0), provider.calls.Load())

	capability, ok := resp.Body.(plugin.Capability)
	require.True(t, ok)
	assert.Equal(t, service.Default().Keys(), capability.Tools[plugin.OpGetServiceStatus].Schema.Fields["service"].Enum)
}

func TestDispatch_InfoWireFormat(t *testing.T) {
	d, _ := newDispatcher(t, &fakeProvider{})

	resp := d.Dispatch(context.Background(), []byte(`{"action":"info"}`))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(marshal(t, resp.Body)), &got))

	assert.Equal(t, "ext-rs-service-status", got["ns"])
	assert.Equal(t, "Service Status", got["title"])

	tag := got["tagValues"].(map[string]any)["ServiceId"].(map[string]any)
	assert.Equal(t, "server", tag["icon"])
	assert.Equal(t, "getEnumServices", tag["loadEntriesHandlerId"])

	tool := got["tools"].(map[string]any)["getServiceStatus"].(map[string]any)
	assert.Equal(t, "Get Service Status", tool["title"])
	assert.Len(t, tool["examples"], 3)

	actions := tool["contextActions"].([]any)
	require.Len(t, actions, 1)
	action := actions[0].(map[string]any)
	assert.Equal(t, "serviceStatusForEnumServiceId", action["handler"])
	assert.Equal(t, map[string]any{"name": "ServiceId"}, action["for"])

	arg := tool["ui"].(map[string]any)["args"].(map[string]any)["service"].(map[string]any)
	assert.Equal(t, "For", arg["prefix"])
	assert.Equal(t, "ServiceId", arg["dtypeName"])
}

func TestDispatch_GetEnumServices(t *testing.T) {
	provider := &fakeProvider{}
	d, _ := newDispatcher(t, provider)

	resp := d.Dispatch(context.Background(), []byte(`{"action":"request","opName":"getEnumServices","info":{}}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(0), provider.calls.Load())

	expected := marshal(t, map[string]any{
		"info":    nil,
		"entries": service.Default().Entries(),
	})
	assert.JSONEq(t, expected, marshal(t, resp.Body))
	assert.Contains(t, marshal(t, resp.Body), `["digitalocean","Digital Ocean"]`)
}

func TestDispatch_GetServiceStatusDefaultsToGithub(t *testing.T) {
	provider := &fakeProvider{doc: apiDocument()}
	d, _ := newDispatcher(t, provider)

	resp := d.Dispatch(context.Background(), []byte(`{"action":"request","opName":"getServiceStatus","info":{}}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "github", provider.last.Load())
	assert.JSONEq(t, `{
		"info": {"type": "table", "cols": [["name","Name"],["status","Status"],["date","Date"]]},
		"data": {
			"cols": ["name","status","date"],
			"rows": [["API","operational",["datetime",{"iso":"2024-01-01T00:00:00Z"}]]]
		}
	}`, marshal(t, resp.Body))
}

func TestDispatch_GetServiceStatusNamedService(t *testing.T) {
	tests := []struct {
		name string
		info string
		want string
	}{
		{"explicit", `{"service":"npm"}`, "npm"},
		{"null service", `{"service":null}`, "github"},
		{"extra fields ignored", `{"service":"twilio","verbose":true}`, "twilio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{doc: apiDocument()}
			d, _ := newDispatcher(t, provider)

			body := `{"action":"request","opName":"getServiceStatus","info":` + tt.info + `}`
			resp := d.Dispatch(context.Background(), []byte(body))

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, tt.want, provider.last.Load())
			_, isTable := resp.Body.(*status.Table)
			assert.True(t, isTable)
		})
	}
}

func TestDispatch_UnknownServiceIsBadResponse(t *testing.T) {
	provider := &fakeProvider{doc: apiDocument()}
	d, m := newDispatcher(t, provider)

	resp := d.Dispatch(context.Background(),
		[]byte(`{"action":"request","opName":"getServiceStatus","info":{"service":"not-a-real-service"}}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"ok":false,"code":"BadResponse","reason":"Bad Response"}`, marshal(t, resp.Body))
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal().WithLabelValues("getServiceStatus", "BadResponse")))
}

func TestDispatch_FetchFailuresAreBadResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"request error", &status.RequestError{Service: "github", Err: errors.New("connection refused")}},
		{"parse error", &status.ParseError{Service: "github", Err: errors.New("missing page")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDispatcher(t, &fakeProvider{err: tt.err})

			resp := d.Dispatch(context.Background(),
				[]byte(`{"action":"request","opName":"getServiceStatus","info":{"service":"github"}}`))

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, plugin.BadResponse.Failure(), resp.Body)
		})
	}
}

func TestDispatch_BadReqInfoFormat(t *testing.T) {
	tests := []struct {
		name string
		info string
	}{
		{"null info", `null`},
		{"string info", `"github"`},
		{"array info", `["github"]`},
		{"numeric service", `{"service":42}`},
		{"object service", `{"service":{"key":"github"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{doc: apiDocument()}
			d, _ := newDispatcher(t, provider)

			body := `{"action":"request","opName":"getServiceStatus","info":` + tt.info + `}`
			resp := d.Dispatch(context.Background(), []byte(body))

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, plugin.BadReqInfoFormat.Failure(), resp.Body)
			assert.Equal(t, int32(0), provider.calls.Load())
		})
	}
}

func TestDispatch_ServiceStatusForEnumServiceID(t *testing.T) {
	tests := []struct {
		name string
		info string
		want string
	}{
		{"pointer present", `{"info":{"service":"cloudflare"}}`, `{"name":"getServiceStatus","args":{"service":"cloudflare"}}`},
		{"value passed verbatim", `{"info":{"service":"no-such-service"}}`, `{"name":"getServiceStatus","args":{"service":"no-such-service"}}`},
		{"non-string value passed verbatim", `{"info":{"service":7}}`, `{"name":"getServiceStatus","args":{"service":7}}`},
		{"null value kept", `{"info":{"service":null}}`, `{"name":"getServiceStatus","args":{"service":null}}`},
		{"missing service", `{"info":{}}`, `{"name":"getServiceStatus","args":{"service":"github"}}`},
		{"missing inner info", `{}`, `{"name":"getServiceStatus","args":{"service":"github"}}`},
		{"inner info not object", `{"info":"cloudflare"}`, `{"name":"getServiceStatus","args":{"service":"github"}}`},
		{"info null", `null`, `{"name":"getServiceStatus","args":{"service":"github"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			d, _ := newDispatcher(t, provider)

			body := `{"action":"request","opName":"serviceStatusForEnumServiceId","info":` + tt.info + `}`
			resp := d.Dispatch(context.Background(), []byte(body))

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.JSONEq(t, tt.want, marshal(t, resp.Body))
			assert.Equal(t, int32(0), provider.calls.Load())
		})
	}
}

func TestDispatch_EnvelopeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		kind   plugin.ErrorKind
		status int
	}{
		{"array body", `[{"action":"info"}]`, plugin.BadBodyFormat, http.StatusBadRequest},
		{"string body", `"info"`, plugin.BadBodyFormat, http.StatusBadRequest},
		{"null body", `null`, plugin.BadBodyFormat, http.StatusBadRequest},
		{"invalid json", `{"action":`, plugin.BadBodyFormat, http.StatusBadRequest},
		{"empty body", ``, plugin.BadBodyFormat, http.StatusBadRequest},
		{"missing action", `{"opName":"getEnumServices"}`, plugin.ActionNotFound, http.StatusBadRequest},
		{"non-string action", `{"action":1}`, plugin.ActionNotFound, http.StatusBadRequest},
		{"null action", `{"action":null}`, plugin.ActionNotFound, http.StatusBadRequest},
		{"unknown action", `{"action":"describe"}`, plugin.BadAction, http.StatusBadRequest},
		{"action case sensitive", `{"action":"Info"}`, plugin.BadAction, http.StatusBadRequest},
		{"missing opName", `{"action":"request","info":{}}`, plugin.BadOpName, http.StatusBadRequest},
		{"non-string opName", `{"action":"request","opName":3,"info":{}}`, plugin.BadOpName, http.StatusBadRequest},
		{"missing info", `{"action":"request","opName":"getEnumServices"}`, plugin.BadOpInfo, http.StatusBadRequest},
		{"unknown opName", `{"action":"request","opName":"restartService","info":{}}`, plugin.UnknownOpName, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			d, _ := newDispatcher(t, provider)

			resp := d.Dispatch(context.Background(), []byte(tt.body))

			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.kind.Failure(), resp.Body)
			assert.Equal(t, int32(0), provider.calls.Load())
		})
	}
}

func TestDispatch_NullInfoCountsAsPresent(t *testing.T) {
	d, _ := newDispatcher(t, &fakeProvider{})

	resp := d.Dispatch(context.Background(), []byte(`{"action":"request","opName":"getEnumServices","info":null}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	_, isEntries := resp.Body.(plugin.EnumEntries)
	assert.True(t, isEntries)
}

func TestDispatch_Operations(t *testing.T) {
	d, _ := newDispatcher(t, &fakeProvider{})

	want := []string{
		"getEnumServices",
		"getServiceStatus",
		"serviceStatusForEnumServiceId",
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, d.Operations())
	}
}

package statuspageio_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusrelay/statusrelay/internal/provider/resilience"
	"github.com/statusrelay/statusrelay/internal/service"
	"github.com/statusrelay/statusrelay/internal/status"
	"github.com/statusrelay/statusrelay/internal/status/statuspageio"
)

const componentsBody = `{
  "page": {
    "id": "kctbh9vrtdwd",
    "name": "GitHub",
    "url": "https://www.githubstatus.com",
    "time_zone": "Etc/UTC",
    "updated_at": "2024-05-01T10:00:00.000Z"
  },
  "components": [
    {
      "id": "8l4ygp009s5s",
      "name": "Git Operations",
      "status": "operational",
      "created_at": "2017-01-31T20:05:05.370Z",
      "updated_at": "2024-05-01T09:59:00.000Z",
      "position": 1,
      "description": "Performance of git clones, pulls, pushes, and associated operations",
      "showcase": false,
      "start_date": null,
      "group_id": null,
      "page_id": "kctbh9vrtdwd",
      "group": false,
      "only_show_if_degraded": false,
      "extra_field": "ignored"
    },
    {
      "id": "brv1bkgrwx7q",
      "name": "API Requests",
      "status": "degraded_performance",
      "created_at": "2017-01-31T20:01:46.621Z",
      "updated_at": "2024-05-01T09:58:00.000Z",
      "position": 2,
      "showcase": false,
      "page_id": "kctbh9vrtdwd",
      "group": false,
      "only_show_if_degraded": false
    }
  ]
}`

func newTestClient(t *testing.T, baseURL string, mutate func(*statuspageio.ClientConfig)) *statuspageio.Client {
	t.Helper()
	cfg := statuspageio.ClientConfig{
		Registry: service.Default(),
		BaseURL:  baseURL,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return statuspageio.NewClient(cfg)
}

func github(t *testing.T) service.Descriptor {
	t.Helper()
	d, err := service.Default().Lookup("github")
	require.NoError(t, err)
	return d
}

func TestClient_GetComponents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, service.ComponentsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(componentsBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	doc, err := client.GetComponents(context.Background(), github(t))
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "GitHub", doc.Page.Name)
	require.Len(t, doc.Components, 2)
	assert.Equal(t, "Git Operations", doc.Components[0].Name)
	assert.Equal(t, "operational", doc.Components[0].Status)
	assert.Equal(t, "2024-05-01T09:59:00.000Z", doc.Components[0].UpdatedAt)
	assert.Nil(t, doc.Components[0].StartDate)
	require.NotNil(t, doc.Components[0].Description)
	assert.Nil(t, doc.Components[1].Description)
	assert.Equal(t, int64(2), doc.Components[1].Position)
}

func TestClient_URL(t *testing.T) {
	direct := newTestClient(t, "", nil)
	assert.Equal(t, "https://www.githubstatus.com/api/v2/components.json", direct.URL(github(t)))

	mirrored := newTestClient(t, "http://mirror.local/", nil)
	assert.Equal(t, "http://mirror.local/api/v2/components.json", mirrored.URL(github(t)))
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "statuspage", newTestClient(t, "", nil).Name())
}

func TestClient_NonSuccessStatusStillParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(componentsBody))
	}))
	defer server.Close()

	doc, err := newTestClient(t, server.URL, nil).GetComponents(context.Background(), github(t))
	require.NoError(t, err)
	assert.Len(t, doc.Components, 2)
}

func TestClient_NonSuccessWithErrorBodyIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, nil).GetComponents(context.Background(), github(t))

	var parseErr *status.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "github", parseErr.Service)
}

func TestClient_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"page":`},
		{"empty body", ``},
		{"missing page", `{"components":[]}`},
		{"missing components", `{"page":{"id":"a","name":"b","time_zone":"c","updated_at":"d","url":"e"}}`},
		{"wrong position type", strings.Replace(componentsBody, `"position": 1`, `"position": "first"`, 1)},
		{"missing component name", strings.Replace(componentsBody, `"name": "API Requests",`, ``, 1)},
		{"array document", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL, nil).GetComponents(context.Background(), github(t))

			var parseErr *status.ParseError
			assert.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "parse_error", status.Outcome(err))
		})
	}
}

func TestClient_EmptyComponents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"page":{"id":"a","name":"b","time_zone":"c","updated_at":"d","url":"e"},"components":[]}`))
	}))
	defer server.Close()

	doc, err := newTestClient(t, server.URL, nil).GetComponents(context.Background(), github(t))
	require.NoError(t, err)
	assert.Empty(t, doc.Components)
}

func TestClient_ConnectionFailureIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, nil).GetComponents(context.Background(), github(t))

	var reqErr *status.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "github", reqErr.Service)
}

func TestClient_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(componentsBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *statuspageio.ClientConfig) {
		cfg.MaxBodyBytes = 16
	})

	_, err := client.GetComponents(context.Background(), github(t))

	var reqErr *status.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, errors.Is(err, statuspageio.ErrBodyTooLarge))
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(componentsBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *statuspageio.ClientConfig) {
		cfg.Timeout = 20 * time.Millisecond
	})

	_, err := client.GetComponents(context.Background(), github(t))

	var reqErr *status.RequestError
	assert.ErrorAs(t, err, &reqErr)
}

func TestClient_SingleAttemptPerCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, nil).GetComponents(context.Background(), github(t))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_RecordsHealthPerService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(componentsBody))
	}))
	defer server.Close()

	health := resilience.NewRegistry()
	client := newTestClient(t, server.URL, func(cfg *statuspageio.ClientConfig) {
		cfg.Health = health
		cfg.UserAgent = "statusrelay-test"
	})

	assert.Equal(t, service.Default().Len(), health.ProviderCount())

	_, err := client.GetComponents(context.Background(), github(t))
	require.NoError(t, err)

	h := health.GetHealth("github")
	require.NotNil(t, h)
	assert.NotNil(t, h.LastSuccessAt)
	assert.Nil(t, h.LastFailureAt)
	assert.Empty(t, h.LastError)
}

func TestClient_CircuitBreakerPerService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := resilience.DefaultCircuitBreakerConfig("")
	client := newTestClient(t, server.URL, func(cfg *statuspageio.ClientConfig) {
		cfg.CircuitBreaker = &cb
	})

	for i := 0; i < 5; i++ {
		_, _ = client.GetComponents(context.Background(), github(t))
	}

	_, err := client.GetComponents(context.Background(), github(t))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	npm, lookupErr := service.Default().Lookup("npm")
	require.NoError(t, lookupErr)
	_, err = client.GetComponents(context.Background(), npm)
	assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
}

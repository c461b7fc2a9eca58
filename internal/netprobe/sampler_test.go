package netprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) OpenConnections() (int, error) { return f.n, f.err }

func TestSampleNetwork(t *testing.T) {
	srv, _, _ := payloadServer(t, 32*1024)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	client := NewClient(testConfig())

	tests := []struct {
		name           string
		url            string
		conns          ConnectionCounter
		wantThroughput bool
		wantConns      float64
		wantErr        bool
	}{
		{"probe and connections", srv.URL, fixedCounter{n: 7}, true, 7, false},
		{"connections only", "", fixedCounter{n: 3}, false, 3, false},
		{"probe failure keeps connections", down.URL, fixedCounter{n: 2}, false, 2, false},
		{"no counter", srv.URL, nil, true, 0, false},
		{"counter failure", srv.URL, fixedCounter{err: errors.New("no /proc")}, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(client, tt.url, tt.conns, nil)
			sample, err := s.SampleNetwork(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantThroughput, sample.HasThroughput)
			assert.Equal(t, tt.wantConns, sample.Connections)
			if tt.wantThroughput {
				assert.Positive(t, sample.Bandwidth)
				assert.Positive(t, sample.Latency)
			}
		})
	}
}

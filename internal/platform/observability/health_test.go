package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

func TestServerHandler(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name   string
		pinger Pinger
		path   string
		want   int
	}{
		{name: "healthz", pinger: fakePinger{}, path: "/healthz", want: http.StatusOK},
		{name: "ready", pinger: fakePinger{}, path: "/readyz", want: http.StatusOK},
		{name: "not ready", pinger: fakePinger{err: errors.New("down")}, path: "/readyz", want: http.StatusServiceUnavailable},
		{name: "no pinger", pinger: nil, path: "/readyz", want: http.StatusOK},
		{name: "metrics", pinger: fakePinger{}, path: "/metrics", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.pinger, 0, &logger)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)

			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "TechPulse/pkg/http"
	applogger "TechPulse/pkg/logger"
)

type orderCloser struct {
	name  string
	order *[]string
	err   error
}

func (c *orderCloser) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestApp_ShutdownClosesResourcesInReverse(t *testing.T) {
	var order []string
	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app := New(applogger.Nop(), srv, nil, nil, time.Second,
		Resource{Name: "cache", Closer: &orderCloser{name: "cache", order: &order}},
		Resource{Name: "nil"},
		Resource{Name: "producer", Closer: &orderCloser{name: "producer", order: &order, err: errors.New("boom")}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, []string{"producer", "cache"}, order)
}

func TestApp_ListenErrorStopsRun(t *testing.T) {
	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithHost("256.0.0.1"), xhttp.WithPort(1))
	app := New(applogger.Nop(), srv, nil, nil, time.Second)

	done := make(chan error, 1)
	go func() { done <- app.RunContext(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listen error was not reported")
	}
}

// FilePath: cmd/main_test.go
package main

import (
	"context"
	"errors"
	"testing"
)

type orderedServer struct {
	events *[]string
	err    error
}

func (s *orderedServer) Shutdown() error {
	*s.events = append(*s.events, "server_shutdown")
	return s.err
}

func TestAwaitShutdownDrainsHTTPBeforeGateway(t *testing.T) {
	events := []string{}
	srv := &orderedServer{events: &events}

	runErrs := make(chan error, 1)
	stopLoop := context.CancelFunc(func() {
		events = append(events, "gateway_stop")
		runErrs <- nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := awaitShutdown(ctx, srv, stopLoop, make(chan error), runErrs); err != nil {
		t.Fatalf("clean shutdown returned error: %v", err)
	}
	if len(events) != 2 || events[0] != "server_shutdown" || events[1] != "gateway_stop" {
		t.Fatalf("teardown order wrong: the HTTP surface must drain before the loop releases its clients, got %v", events)
	}
}

func TestAwaitShutdownStopsLoopOnServerError(t *testing.T) {
	events := []string{}
	srv := &orderedServer{events: &events}

	runErrs := make(chan error, 1)
	stopLoop := context.CancelFunc(func() {
		events = append(events, "gateway_stop")
		runErrs <- nil
	})

	srvErrs := make(chan error, 1)
	srvErrs <- errors.New("listen tcp: address in use")

	err := awaitShutdown(context.Background(), srv, stopLoop, srvErrs, runErrs)
	if err == nil {
		t.Fatal("listen error must propagate")
	}
	if len(events) != 1 || events[0] != "gateway_stop" {
		t.Fatalf("loop not stopped after server failure: %v", events)
	}
}

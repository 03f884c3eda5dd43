package mux

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/nullbound/obscura-client/internal/session"
	"github.com/nullbound/obscura-client/internal/wire"
)

// pairedSessions wires two Sessions' DataFrame channels directly together,
// simulating a lossless link so Multiplex can be exercised without real
// sockets or FEC.
func pairedSessions(t *testing.T) (a, b *session.Session) {
	t.Helper()
	ab := make(chan wire.DataFrame, 1024)
	ba := make(chan wire.DataFrame, 1024)

	ctx := context.Background()
	a = session.New(ctx, session.Config{
		Latency:    2 * time.Millisecond,
		TargetLoss: 0,
		SendFrame:  func(df wire.DataFrame) error { ab <- df; return nil },
		RecvFrame:  ba,
	})
	b = session.New(ctx, session.Config{
		Latency:    2 * time.Millisecond,
		TargetLoss: 0,
		SendFrame:  func(df wire.DataFrame) error { ba <- df; return nil },
		RecvFrame:  ab,
	})
	return a, b
}

func TestMultiplexUnreliableRoundTrip(t *testing.T) {
	sessA, sessB := pairedSessions(t)
	defer sessA.Close()
	defer sessB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mxA, err := New(ctx, sessA)
	if err != nil {
		t.Fatal(err)
	}
	defer mxA.Close()
	mxB, err := NewServer(ctx, sessB)
	if err != nil {
		t.Fatal(err)
	}
	defer mxB.Close()

	if err := mxA.SendUrel([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	got, err := mxB.RecvUrel()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q, want %q", got, "ping")
	}
}

func TestMultiplexOpenAcceptStream(t *testing.T) {
	sessA, sessB := pairedSessions(t)
	defer sessA.Close()
	defer sessB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mxA, err := New(ctx, sessA)
	if err != nil {
		t.Fatal(err)
	}
	defer mxA.Close()
	mxB, err := NewServer(ctx, sessB)
	if err != nil {
		t.Fatal(err)
	}
	defer mxB.Close()

	openCtx, openCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer openCancel()

	type openOutcome struct {
		conn interface {
			io.ReadWriteCloser
		}
		err error
	}
	done := make(chan openOutcome, 1)
	go func() {
		c, err := mxA.OpenConn(openCtx, "example.onion:80")
		done <- openOutcome{conn: c, err: err}
	}()

	serverConn, err := mxB.AcceptConn()
	if err != nil {
		t.Fatalf("AcceptConn: %v", err)
	}
	defer serverConn.Close()

	out := <-done
	if out.err != nil {
		t.Fatalf("OpenConn: %v", out.err)
	}
	clientConn := out.conn
	defer clientConn.Close()

	if _, err := clientConn.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(serverConn, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte("hello")) {
		t.Fatalf("got %q, want %q", buf, "hello")
	}
}

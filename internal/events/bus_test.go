package events

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestSessionRevokedMatches(t *testing.T) {
	all := SessionRevoked{UserID: "u1"}
	if !all.Matches("u1", "f1") || !all.Matches("u1", "") {
		t.Fatal("expected empty family to match every session of the user")
	}
	if all.Matches("u2", "f1") {
		t.Fatal("expected other users not to match")
	}

	one := SessionRevoked{UserID: "u1", Family: "f1"}
	if !one.Matches("u1", "f1") {
		t.Fatal("expected same family to match")
	}
	if one.Matches("u1", "f2") {
		t.Fatal("expected other family not to match")
	}
}

func TestLocalBusDeliversInOrder(t *testing.T) {
	bus := NewLocalBus()
	var got []string
	bus.Subscribe(func(e SessionRevoked) { got = append(got, "a:"+e.UserID) })
	bus.Subscribe(func(e SessionRevoked) { got = append(got, "b:"+e.UserID) })

	if err := bus.Publish(context.Background(), SessionRevoked{UserID: "u1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 || got[0] != "a:u1" || got[1] != "b:u1" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
}

func TestLocalBusUnsubscribe(t *testing.T) {
	bus := NewLocalBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(SessionRevoked) { calls++ })
	unsubscribe()
	unsubscribe()

	_ = bus.Publish(context.Background(), SessionRevoked{UserID: "u1"})
	if calls != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", calls)
	}
	if bus.Len() != 0 {
		t.Fatalf("expected no handlers, got %d", bus.Len())
	}
}

func TestNewWithoutRedisIsLocal(t *testing.T) {
	bus, err := New(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := bus.(*LocalBus); !ok {
		t.Fatalf("expected LocalBus, got %T", bus)
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := NewRedisBus(ctx, redisURL, "vitaup:test:"+time.Now().Format("150405.000000"), nil)
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer bus.Close()

	received := make(chan SessionRevoked, 1)
	bus.Subscribe(func(e SessionRevoked) { received <- e })

	if err := bus.Publish(ctx, SessionRevoked{UserID: "u1", Family: "f1", Reason: "sign_out"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case e := <-received:
		if e.UserID != "u1" || e.Family != "f1" || e.Reason != "sign_out" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

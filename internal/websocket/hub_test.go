package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/models"
)

type countingObserver struct{ connected, disconnected atomic.Int32 }

func (o *countingObserver) ClientConnected()    { o.connected.Add(1) }
func (o *countingObserver) ClientDisconnected() { o.disconnected.Add(1) }

func startHub(t *testing.T, obs ClientObserver) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil, obs)
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func pebble() gateway.Snapshot {
	t := models.Tournament{Name: "Pebble (2024-05-01)", Course: models.NewCourse("Pebble", "2024-05-01"),
		Teams: []models.Team{models.NewTeam("A"), models.NewTeam("B")}}
	return gateway.Snapshot{t.Name: t}
}

func receive(t *testing.T, c *Client) Update {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatalf("client channel closed")
		}
		var u Update
		if err := json.Unmarshal(msg, &u); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		return u
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for update")
		return Update{}
	}
}

func TestPublishReachesTopics(t *testing.T) {
	h := startHub(t, nil)
	all := NewClient("")
	one := NewClient("Pebble (2024-05-01)")
	h.Register(all)
	h.Register(one)

	h.Publish(pebble())

	u := receive(t, all)
	if u.Type != "snapshot" || len(u.IDs) != 1 || u.IDs[0] != "Pebble (2024-05-01)" {
		t.Fatalf("unexpected collection update %+v", u)
	}
	u = receive(t, one)
	if u.Type != "tournament" || u.Tournament == nil || len(u.Leaderboard) != 2 {
		t.Fatalf("unexpected tournament update %+v", u)
	}
}

func TestLateClientGetsLatest(t *testing.T) {
	h := startHub(t, nil)
	h.Publish(pebble())

	// Publication is asynchronous; an empty-topic registration after it may race, so
	// retry until the latest update has been stored.
	deadline := time.Now().Add(3 * time.Second)
	for {
		c := NewClient("Pebble (2024-05-01)")
		h.Register(c)
		select {
		case msg := <-c.Send:
			var u Update
			if err := json.Unmarshal(msg, &u); err != nil || u.Type != "tournament" {
				t.Fatalf("unexpected first update %s (%v)", msg, err)
			}
			return
		case <-time.After(20 * time.Millisecond):
			h.Unregister(c)
			if time.Now().After(deadline) {
				t.Fatalf("late client never received the latest update")
			}
		}
	}
}

func TestDeletedTournamentNotified(t *testing.T) {
	h := startHub(t, nil)
	c := NewClient("Pebble (2024-05-01)")
	h.Register(c)
	h.Publish(pebble())
	receive(t, c)

	h.Publish(gateway.Snapshot{})
	if u := receive(t, c); u.Type != "deleted" || u.ID != "Pebble (2024-05-01)" {
		t.Fatalf("expected deleted update, got %+v", u)
	}
}

func TestSlowClientDropped(t *testing.T) {
	obs := &countingObserver{}
	h := startHub(t, obs)
	slow := NewClient("")
	h.Register(slow)

	for i := 0; i < sendBuffer+4; i++ {
		h.Publish(gateway.Snapshot{})
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-slow.Send:
			if !ok {
				if h.ClientCount() != 0 {
					t.Fatalf("dropped client still counted")
				}
				if obs.connected.Load() != 1 || obs.disconnected.Load() != 1 {
					t.Fatalf("observer saw %d connects, %d disconnects", obs.connected.Load(), obs.disconnected.Load())
				}
				return
			}
			// Drain slowly so the buffer stays full while the hub keeps publishing.
			time.Sleep(50 * time.Millisecond)
		case <-deadline:
			t.Fatalf("slow client was never dropped")
		}
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := startHub(t, nil)
	c := NewClient("")
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)
	if _, ok := <-c.Send; ok {
		t.Fatalf("send channel not closed")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", h.ClientCount())
	}
}

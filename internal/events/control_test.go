package events

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

func TestController_PublishesControlCommands(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 8)
	sub, err := nc.ChanSubscribe("arena.control.>", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	c := NewController(pub, "duel", slog.Default())
	viewer, target := uuid.New(), uuid.New()

	c.RefreshArena()
	c.StartRoundTimer()
	c.StopRoundTimer()
	c.Kick(target)
	c.SetSpectatorMode(target)
	c.HidePlayer(viewer, target)
	pub.conn.Flush()

	want := map[string]int{
		TopicControlRefresh:   1,
		TopicControlTimer:     2,
		TopicControlKick:      1,
		TopicControlSpectator: 1,
		TopicControlHide:      1,
	}
	got := make(map[string]int)
	for i := 0; i < 6; i++ {
		select {
		case msg := <-ch:
			got[msg.Subject]++
			if msg.Subject == TopicControlHide {
				var hide ControlHide
				if err := json.Unmarshal(msg.Data, &hide); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if hide.Viewer != viewer || hide.Target != target {
					t.Errorf("hide = %+v, want viewer=%s target=%s", hide, viewer, target)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out; received %v", got)
		}
	}
	for topic, n := range want {
		if got[topic] != n {
			t.Errorf("received %d on %s, want %d", got[topic], topic, n)
		}
	}
}

func TestController_ReconnectPolicy(t *testing.T) {
	c := NewController(&NoopPublisher{}, "duel", slog.Default())
	id := uuid.New()

	if !c.ReconnectAllowed(id) {
		t.Error("default policy should allow reconnection")
	}

	c.ReconnectPolicy = func(uuid.UUID) bool { return false }
	if c.ReconnectAllowed(id) {
		t.Error("configured policy ignored")
	}
}

package services

import (
	"testing"

	"portkeeper/internal/models"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()

	var first, second []StatusEvent
	bus.SubscribeStatus(func(ev StatusEvent) { first = append(first, ev) })
	bus.SubscribeStatus(func(ev StatusEvent) { second = append(second, ev) })

	bus.PublishStatus("inst-1", models.ProviderBore, models.Connected("bore.pub:1234"))

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("every subscriber must see the event, got %d and %d", len(first), len(second))
	}
	ev := first[0]
	if ev.InstanceID != "inst-1" || ev.Provider != models.ProviderBore {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Status.Kind != models.StatusConnected || ev.Status.URL != "bore.pub:1234" {
		t.Errorf("unexpected status %+v", ev.Status)
	}
}

func TestEventBusURLEvents(t *testing.T) {
	bus := NewEventBus()

	var got []URLEvent
	bus.SubscribeURL(func(ev URLEvent) { got = append(got, ev) })

	bus.PublishURL("inst-2", "tcp://0.tcp.ngrok.io:10234")

	if len(got) != 1 {
		t.Fatalf("expected one url event, got %d", len(got))
	}
	if got[0].InstanceID != "inst-2" || got[0].URL != "tcp://0.tcp.ngrok.io:10234" {
		t.Errorf("unexpected event %+v", got[0])
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Publishing with nobody listening must not panic.
	bus.PublishStatus("inst-3", models.ProviderPlayit, models.Disconnected())
	bus.PublishURL("inst-3", "ply.gg:4567")
}

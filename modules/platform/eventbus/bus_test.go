package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch chan *Event, timeout time.Duration) *Event {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		return nil
	}
}

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus()

	teamCh := make(chan *Event, 1)
	allCh := make(chan *Event, 2)
	bus.Subscribe([]EventType{EventTeamsUpdated}, func(ev *Event) { teamCh <- ev })
	bus.Subscribe(nil, func(ev *Event) { allCh <- ev })

	bus.Publish(NewEvent(EventTeamsUpdated).WithSource("router"))
	bus.Publish(NewEvent(EventMetricsUpdated))

	ev := collect(teamCh, time.Second)
	require.NotNil(t, ev)
	assert.Equal(t, EventTeamsUpdated, ev.Type)
	assert.Equal(t, "router", ev.Source)

	require.NotNil(t, collect(allCh, time.Second), "nil filter receives everything")
	require.NotNil(t, collect(allCh, time.Second))

	assert.Nil(t, collect(teamCh, 100*time.Millisecond), "filtered subscriber skips other types")
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	ch := make(chan *Event, 1)
	id := bus.Subscribe(nil, func(ev *Event) { ch <- ev })
	bus.Unsubscribe(id)

	bus.Publish(NewEvent(EventConfigUpdated))
	assert.Nil(t, collect(ch, 100*time.Millisecond))
}

func TestEventBuilder(t *testing.T) {
	ev := NewEvent(EventReorderCommitted).
		WithSource("presenter").
		WithData("teamId", "t1").
		WithData("folders", 2)

	assert.Equal(t, EventReorderCommitted, ev.Type)
	assert.Equal(t, "presenter", ev.Source)
	assert.Equal(t, "t1", ev.Data["teamId"])
	assert.Equal(t, 2, ev.Data["folders"])
	assert.False(t, ev.Timestamp.IsZero())
}

func TestHistory(t *testing.T) {
	bus := NewBus()

	bus.Publish(NewEvent(EventTeamsUpdated))
	bus.Publish(NewEvent(EventAnalysesUpdated))
	bus.Publish(NewEvent(EventBackendUpdated))

	history := bus.GetHistory(2)
	require.Len(t, history, 2)
	assert.Equal(t, EventAnalysesUpdated, history[0].Type)
	assert.Equal(t, EventBackendUpdated, history[1].Type)

	assert.Len(t, bus.GetHistory(0), 3, "zero limit returns everything")
}

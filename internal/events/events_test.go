package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(BookingCreated, func(event Event) error {
		got = append(got, string(event.Payload))
		return nil
	})

	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]int64{"id": 7}))
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"id":7}`, got[0])
}

func TestPublishSetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	var stamped time.Time
	bus.Subscribe(HoursUpdated, func(event Event) error {
		stamped = event.CreatedAt
		return nil
	})

	bus.Publish(Event{Type: HoursUpdated})
	assert.False(t, stamped.IsZero())
}

func TestAsyncSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewEventBus()

	release := make(chan struct{})
	handled := make(chan string, 8)
	bus.SubscribeAsync(BookingConfirmed, func(event Event) error {
		<-release
		handled <- string(event.Payload)
		return nil
	})

	start := time.Now()
	bus.Publish(Event{Type: BookingConfirmed, Payload: []byte("first")})
	bus.Publish(Event{Type: BookingConfirmed, Payload: []byte("second")})
	assert.Less(t, time.Since(start), time.Second, "publish must return before the handler runs")

	close(release)
	assert.Equal(t, "first", <-handled)
	assert.Equal(t, "second", <-handled)
}

func TestAsyncSubscriberPreservesOrder(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var got []string
	bus.SubscribeAsync(BookingDeleted, func(event Event) error {
		mu.Lock()
		got = append(got, string(event.Payload))
		mu.Unlock()
		return nil
	})

	want := []string{"a", "b", "c", "d"}
	for _, p := range want {
		bus.Publish(Event{Type: BookingDeleted, Payload: []byte(p)})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(want)
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got)
}

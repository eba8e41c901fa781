package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/models"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string

	bus.Subscribe(ListenerFunc(func(ev Event) { got = append(got, "a:"+string(ev.Kind())) }))
	bus.Subscribe(ListenerFunc(func(ev Event) { got = append(got, "b:"+string(ev.Kind())) }))

	bus.Publish(ItemDeleted{ID: "p1"})

	assert.Equal(t, []string{"a:catalog.item_deleted", "b:catalog.item_deleted"}, got)
}

func TestBus_NoBacklog(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(Ready{})

	var got []Event
	bus.Subscribe(ListenerFunc(func(ev Event) { got = append(got, ev) }))
	assert.Empty(t, got, "events published before subscribing are lost")

	bus.Publish(Ready{})
	assert.Equal(t, []Event{Ready{}}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsub := bus.Subscribe(ListenerFunc(func(Event) { calls++ }))

	bus.Publish(Ready{})
	unsub()
	unsub()
	bus.Publish(Ready{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_PanickingListenerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)
	reached := false
	bus.Subscribe(ListenerFunc(func(Event) { panic("boom") }))
	bus.Subscribe(ListenerFunc(func(Event) { reached = true }))

	assert.NotPanics(t, func() { bus.Publish(Ready{}) })
	assert.True(t, reached)
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	env := NewEnvelope(ItemUpdated{ID: "p1", Data: models.ItemPatch{Colors: models.StringsPtr("red")}}, at)
	assert.Equal(t, KindItemUpdated, env.Type)
	assert.Equal(t, "p1", env.ID)
	assert.Equal(t, map[string]any{"colors": []string{"red"}}, env.Data)

	env = NewEnvelope(Ready{}, at)
	assert.Empty(t, env.ID)
	assert.Nil(t, env.Data)
}

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := client.Subscribe(ctx, DefaultRedisChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(client, "", nil)
	p.Handle(ItemDeleted{ID: "p9"})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	assert.Equal(t, KindItemDeleted, env.Type)
	assert.Equal(t, "p9", env.ID)
}

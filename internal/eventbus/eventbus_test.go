package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{}

func TestPublishDispatchesByType(t *testing.T) {
	b := New()
	var got []int
	unsubA := Subscribe(b, func(_ context.Context, e ping) { got = append(got, e.N) })
	Subscribe(b, func(_ context.Context, e ping) { got = append(got, e.N*10) })
	Subscribe(b, func(context.Context, pong) { t.Fatal("pong handler called for ping") })

	Publish(context.Background(), b, ping{N: 1})
	require.Equal(t, []int{1, 10}, got)

	unsubA()
	Publish(context.Background(), b, ping{N: 2})
	require.Equal(t, []int{1, 10, 20}, got)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	b := New()
	calls := map[string]int{}
	handler := func(name string) Handler[ping] {
		return func(context.Context, ping) { calls[name]++ }
	}
	unsubFirst := Subscribe(b, handler("first"))
	Subscribe(b, handler("second"))

	unsubFirst()
	unsubFirst()
	Publish(context.Background(), b, ping{})
	require.Equal(t, map[string]int{"second": 1}, calls)
}

func TestNilBus(t *testing.T) {
	var b *Bus
	unsub := Subscribe(b, func(context.Context, ping) {})
	unsub()
	Publish(context.Background(), b, ping{})
}

func TestSubscribeDuringPublish(t *testing.T) {
	b := New()
	late := 0
	Subscribe(b, func(context.Context, ping) {
		Subscribe(b, func(context.Context, ping) { late++ })
	})
	Publish(context.Background(), b, ping{})
	require.Zero(t, late, "handlers added while publishing wait for the next event")
	Publish(context.Background(), b, ping{})
	require.Equal(t, 1, late)
}

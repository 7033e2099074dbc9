package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type started struct{ Name string }
type finished struct{ Name string }

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []string
	unsubA := Subscribe(func(ctx context.Context, e started) { got = append(got, "a:"+e.Name) })
	unsubB := Subscribe(func(ctx context.Context, e started) { got = append(got, "b:"+e.Name) })
	defer unsubB()
	Subscribe(func(ctx context.Context, e finished) { got = append(got, "finished:"+e.Name) })

	Publish(context.Background(), started{Name: "one"})
	Publish(context.Background(), finished{Name: "one"})
	unsubA()
	unsubA()
	Publish(context.Background(), started{Name: "two"})

	require.Equal(t, []string{"a:one", "b:one", "finished:one", "b:two"}, got)
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	unsub := Subscribe(func(ctx context.Context, e started) { t.Fatal("handler called without a bus") })
	Publish(context.Background(), started{Name: "ignored"})
	unsub()
}

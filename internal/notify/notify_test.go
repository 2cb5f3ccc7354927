package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNew_Drivers(t *testing.T) {
	t.Parallel()

	n, err := New(Options{Driver: ""})
	require.NoError(t, err)
	require.IsType(t, &Log{}, n)

	n, err = New(Options{Driver: "LOG"})
	require.NoError(t, err)
	require.IsType(t, &Log{}, n)

	n, err = New(Options{Driver: "kafka", Brokers: []string{"localhost:9092"}, Topic: "emails"})
	require.NoError(t, err)
	require.IsType(t, &Kafka{}, n)
	require.NoError(t, n.Close())

	_, err = New(Options{Driver: "kafka"})
	require.Error(t, err)

	_, err = New(Options{Driver: "smtp"})
	require.Error(t, err)
}

func TestLog_Notify(t *testing.T) {
	t.Parallel()

	n := NewLog()
	require.NoError(t, n.Notify(context.Background(), Verification("a@b.com", "http://x/verify")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Notify(ctx, TempPassword("a@b.com", "pw")), context.Canceled)
}

func TestKafka_Notify_PublishesJSON(t *testing.T) {
	t.Parallel()

	fw := &fakeWriter{}
	k := &Kafka{w: fw, topic: "emails"}

	require.NoError(t, k.Notify(context.Background(), TempPassword("Alice@Example.com", "Tmp-12345678")))

	require.Len(t, fw.msgs, 1)
	m := fw.msgs[0]
	require.Equal(t, "alice@example.com", string(m.Key))

	var got Message
	require.NoError(t, json.Unmarshal(m.Value, &got))
	require.Equal(t, KindTempPassword, got.Kind)
	require.Equal(t, "Tmp-12345678", got.TempPassword)
	require.Empty(t, got.Link)

	var kind string
	for _, h := range m.Headers {
		if h.Key == "kind" {
			kind = string(h.Value)
		}
	}
	require.Equal(t, "temp_password", kind)

	require.NoError(t, k.Close())
	require.True(t, fw.closed)
}

func TestKafka_Notify_WriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	k := &Kafka{w: &fakeWriter{err: boom}, topic: "emails"}

	err := k.Notify(context.Background(), Verification("a@b.com", "link"))
	require.ErrorIs(t, err, boom)
}

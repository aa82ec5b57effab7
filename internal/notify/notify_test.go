package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

func testEvent() *Event {
	return NewEvent("chat-1", chat.Message{
		Role:       chat.RoleAssistant,
		Content:    "<ideablock><name>n</name></ideablock>",
		IsComplete: true,
		Timestamp:  1700000000000,
	})
}

// asyncReceive must be called before Publish because miniredis delivers
// pub/sub messages synchronously.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{}
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(string(enc), func(t *testing.T) {
			data, err := Encode(enc, testEvent())
			require.NoError(t, err)

			got, err := Decode(enc, data)
			require.NoError(t, err)
			assert.Equal(t, testEvent(), got)
		})
	}

	_, err := Encode("xml", testEvent())
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestRedis_Publish(t *testing.T) {
	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(string(enc), func(t *testing.T) {
			mr := miniredis.RunT(t)

			p, err := NewRedis(RedisConfig{URL: "redis://" + mr.Addr(), Encoding: enc})
			require.NoError(t, err)
			defer p.Close()

			sub := mr.NewSubscriber()
			sub.Subscribe(DefaultRedisChannel)
			ch := asyncReceive(sub)

			require.NoError(t, p.Publish(context.Background(), testEvent()))

			msg := waitMessage(t, ch)
			got, err := Decode(enc, []byte(msg.Message))
			require.NoError(t, err)
			assert.Equal(t, "chat-1", got.ChatID)
			assert.Equal(t, "assistant", got.Role)
		})
	}
}

func TestRedis_RetriesExhausted(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	p, err := NewRedis(RedisConfig{URL: "redis://" + addr, Retries: 1, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish(context.Background(), testEvent())
	assert.ErrorContains(t, err, "failed after 2 attempts")
}

func TestRedis_InvalidConfig(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedis(RedisConfig{URL: "not a url"})
	assert.Error(t, err)

	_, err = NewRedis(RedisConfig{URL: "redis://localhost:6379", Retries: -1})
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := New(Config{Backend: BackendRedis, URL: "redis://" + mr.Addr(), Subject: "custom"}, nil)
	require.NoError(t, err)
	defer p.Close()

	sub := mr.NewSubscriber()
	sub.Subscribe("custom")
	ch := asyncReceive(sub)

	rec := Recorder{Publisher: p}
	require.NoError(t, rec.RecordMessage(context.Background(), "abc", chat.NewMessage(chat.RoleUser, "hi")))

	got, err := Decode(EncodingJSON, []byte(waitMessage(t, ch).Message))
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ChatID)
	assert.Equal(t, "hi", got.Content)
}

func TestNew_Backends(t *testing.T) {
	p, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = New(Config{Backend: "kafka"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(Config{Backend: BackendRedis, URL: "redis://localhost:6379", Encoding: "xml"}, nil)
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestNATS_Subject(t *testing.T) {
	n := NewNATS(NATSConfig{}, nil)
	assert.Equal(t, "blockify.chat.abc-123.messages", n.Subject("abc-123"))
	assert.Equal(t, "blockify.chat.a_b_c.messages", n.Subject("a.b*c"))
	assert.Equal(t, "blockify.chat._.messages", n.Subject(""))
}

func TestNATS_PublishNotConnected(t *testing.T) {
	n := NewNATS(NATSConfig{}, nil)
	assert.ErrorIs(t, n.Publish(context.Background(), testEvent()), ErrNotConnected)
	assert.NoError(t, n.Close())
}

func TestNATS_PublishSubscribe(t *testing.T) {
	// Skip if NATS isn't running
	pub := NewNATS(NATSConfig{MaxReconnects: -1, ConnectTimeout: time.Second}, nil)
	if err := pub.Connect(); err != nil {
		t.Skipf("NATS not available: %v", err)
	}
	defer pub.Close()

	sub := NewNATS(NATSConfig{MaxReconnects: -1}, nil)
	require.NoError(t, sub.Connect())
	defer sub.Close()

	var mu sync.Mutex
	var got []*Event
	s, err := sub.Subscribe("*", func(ev *Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer s.Unsubscribe()

	require.NoError(t, pub.Publish(context.Background(), testEvent()))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

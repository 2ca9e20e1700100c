package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func startNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()
	opts := test.DefaultTestOptions
	opts.Port = -1
	srv := test.RunServer(&opts)
	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		t.Fatalf("connect nats: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Shutdown()
	})
	return srv, conn
}

func TestNATSPublisherPublishesJSON(t *testing.T) {
	_, conn := startNATS(t)
	sub, err := conn.SubscribeSync("ttsd.session.>")
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	pub := NewNATSPublisher(conn, "", zerolog.Nop())
	pub.Publish(Event{Name: "load_ready", Generation: 3, Fields: map[string]any{"gpt": "a.ckpt"}})
	require.NoError(t, conn.Flush())

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, "ttsd.session.load_ready", msg.Subject)
	var got Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Equal(t, uint64(3), got.Generation)
	require.Equal(t, "a.ckpt", got.Fields["gpt"])
}

// Package bitstamp adapts Bitstamp's diff_order_book WebSocket channel and
// REST order-book snapshot into the domain package's venue-neutral
// VenueAdapter contract.
package bitstamp

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/recws-org/recws"
)

var logger = log.New(os.Stdout, "[bitstamp] ", log.LstdFlags)

const pingDelay = time.Minute * 9

// streamClient is a reconnecting WebSocket reader for one channel, adapted
// from the teacher's provider/kucoin/stream-api.go subscribe-then-read
// shape; the SUBSCRIBE control frame is sent once right after dialing since
// Bitstamp, unlike the teacher's Kucoin client, has no token/ping-interval
// handshake to negotiate first.
type streamClient struct {
	conn *recws.RecConn
}

func newStreamClient() *streamClient {
	return &streamClient{conn: &recws.RecConn{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 5 * time.Second,
		KeepAliveTimeout: pingDelay,
		NonVerbose:       true,
	}}
}

type subscribeFrame struct {
	Event string `json:"event"`
	Data  struct {
		Channel string `json:"channel"`
	} `json:"data"`
}

func (c *streamClient) connect(url, channel string) error {
	c.conn.Dial(url, nil)
	frame := subscribeFrame{Event: "bts:subscribe"}
	frame.Data.Channel = channel
	return c.conn.WriteJSON(frame)
}

func (c *streamClient) close() {
	if c.conn.Conn != nil {
		c.conn.Close()
	}
}

// frame is one terminal channel item: either a raw message or the read
// error that ended the stream, never both. Carrying both outcomes on one
// channel means the caller's select has a single case to drain, so there is
// no way to observe the channel closed before its terminal error arrives.
type frame struct {
	msg []byte
	err error
}

// readLoop pushes every raw frame onto out until the connection dies or
// ctx-driven shutdown closes it from the caller side. The final item sent
// before out is closed always carries the terminal error, if any.
func (c *streamClient) readLoop(out chan<- frame) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			out <- frame{err: err}
			close(out)
			return
		}
		out <- frame{msg: msg}
	}
}

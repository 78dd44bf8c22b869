// Package binance adapts the Binance diff-depth WebSocket stream and REST
// depth snapshot into the domain package's venue-neutral VenueAdapter
// contract.
package binance

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/recws-org/recws"
)

var logger = log.New(os.Stdout, "[binance] ", log.LstdFlags)

const pingDelay = time.Minute * 9

// streamClient is a reconnecting depth-diff WebSocket reader for one
// symbol, adapted from the teacher's provider/binance/stream-client.go. The
// teacher's multi-topic subscribe/unsubscribe bookkeeping is dropped: this
// process aggregates exactly one symbol, so the depth stream is dialed
// directly rather than multiplexed over a combined stream with SUBSCRIBE
// control frames.
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

func (c *streamClient) connect(url string) {
	c.conn.Dial(url, nil)
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

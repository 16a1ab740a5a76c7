package nats

import (
	"encoding/json"

	"github.com/avvvet/gate-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Nats struct {
	Url    string
	Token  string
	Source string // stamped on every published event
	Conn   *nats.Conn
}

// Connect returns a nil *Nats when url is empty; publishing on it is a no-op.
// An unreachable server is not an error: the client keeps retrying in the
// background and events published meanwhile are buffered.
func Connect(url, token, source string) (*Nats, error) {
	if url == "" {
		return nil, nil
	}

	n := &Nats{
		Url:    url,
		Token:  token,
		Source: source,
	}

	opts := []nats.Option{
		nats.Name(source),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %s", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("nats connected to %s", c.ConnectedUrl())
		}),
	}

	// if token provided
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn
	if !conn.IsConnected() {
		log.Warnf("nats server %s not reachable yet, retrying in background", url)
	}

	return n, nil
}

func (n *Nats) Notify(ev comm.Event) {
	if n == nil || n.Conn == nil {
		return
	}
	if ev.Source == "" {
		ev.Source = n.Source
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("Error marshal event %s: %s", ev.Type, err)
		return
	}
	if err := n.Conn.Publish(ev.Type, payload); err != nil {
		log.Errorf("Error publish %s: %s", ev.Type, err)
	}
}

// Close flushes pending events and closes the connection.
func (n *Nats) Close() {
	if n == nil || n.Conn == nil {
		return
	}
	if err := n.Conn.Drain(); err != nil {
		log.Warnf("nats drain: %s", err)
		n.Conn.Close()
	}
}

package server

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
)

// NatsPublisher mirrors every broadcast race state to a NATS subject
// keyed by session, so external consumers can follow races without
// holding an HTTP stream open.
type NatsPublisher struct {
	conn *nats.Conn
	l    *log.Logger
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("race-view-service"),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NatsPublisher{
		conn: conn,
		l:    log.Default().Named("nats"),
	}, nil
}

func (n *NatsPublisher) Publish(state *model.RaceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return n.conn.Publish(fmt.Sprintf("racestate.%s", state.SessionID), data)
}

func (n *NatsPublisher) Close() {
	n.l.Debug("closing nats connection")
	n.conn.Close()
}

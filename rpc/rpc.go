package rpc

import "fmt"

const (
	TransportTcp       = "tcp"
	TransportWebsocket = "websocket"

	// WebsocketPath is where a WsServer accepts rpc connections.
	WebsocketPath = "/rpc"

	// maxMessageSize bounds one websocket message; gob writes a whole reply, compressed field
	// included, as one message.
	maxMessageSize = 256 << 20
)

type Server interface {
	Run() error
	Stop() error
	Address() string
}

// NewServer serves the exported methods of object over transport.
func NewServer(transport string, object interface{}, address string, name string) (Server, error) {
	switch transport {
	case TransportTcp, "":
		return NewTcpServer(object, address, name), nil
	case TransportWebsocket:
		return NewWsServer(object, address, name), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

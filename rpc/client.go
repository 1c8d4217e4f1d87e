package rpc

import (
	"context"
	"errors"
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
	"github.com/coder/websocket"
	"net/rpc"
	"sync"
	"time"
)

const dialTimeout = 10 * time.Second

// Client calls the methods of a Server. It is safe for concurrent use once connected.
type Client struct {
	client        *rpc.Client
	mutex         sync.Mutex
	serverAddress string
	transport     string

	Logger bslogger.Logger
	Name   string
}

func NewClient(transport string, serverAddress string, name string) (*Client, error) {
	switch transport {
	case "":
		transport = TransportTcp
	case TransportTcp, TransportWebsocket:
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
	return &Client{
		serverAddress: serverAddress,
		transport:     transport,
		Logger:        bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:          name,
	}, nil
}

func (c *Client) Connect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.client != nil {
		c.Logger.Warningf("Already connected to server at address %s", c.serverAddress)
		return nil
	}

	var err error
	switch c.transport {
	case TransportWebsocket:
		c.client, err = dialWebsocket(c.serverAddress)
	default:
		c.client, err = rpc.Dial("tcp", c.serverAddress)
	}
	if err != nil {
		c.Logger.Errorf("Connecting to server at address %s", c.serverAddress)
		return err
	}
	c.Logger.Infof("Connected to server at: %s (%s)", c.serverAddress, c.transport)
	return nil
}

func dialWebsocket(serverAddress string) (*rpc.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s%s", serverAddress, WebsocketPath), nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	return rpc.NewClient(websocket.NetConn(context.Background(), conn, websocket.MessageBinary)), nil
}

func (c *Client) Call(method string, request interface{}, reply interface{}) error {
	c.mutex.Lock()
	client := c.client
	c.mutex.Unlock()

	if client == nil {
		message := fmt.Sprintf("Not connected to server at address %s : method %s", c.serverAddress, method)
		c.Logger.Error(message)
		return errors.New(message)
	}

	err := client.Call(method, request, reply)
	if err != nil {
		c.Logger.Debugf("Calling server at address: %s, method: %s - %s", c.serverAddress, method, err)
		return err
	}
	c.Logger.Debugf("Calling server [%s] %s", c.serverAddress, method)
	return nil
}

func (c *Client) Disconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.client == nil {
		message := fmt.Sprintf("Already disconnected from server at address %s", c.serverAddress)
		c.Logger.Warning(message)
		return errors.New(message)
	}

	err := c.client.Close()
	c.client = nil
	if err != nil {
		c.Logger.Errorf("Disconnecting from server at address %s", c.serverAddress)
		return err
	}
	c.Logger.Infof("Disconnected from server at %s", c.serverAddress)
	return nil
}

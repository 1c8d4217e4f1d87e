package rpc

import (
	"context"
	"errors"
	"github.com/BrugadaSyndrome/bslogger"
	"github.com/coder/websocket"
	"net"
	"net/http"
	"net/rpc"
	"sync"
	"time"
)

// WsServer serves rpc over websocket connections, for workers that can only reach the
// coordinator through http infrastructure.
type WsServer struct {
	address  string
	cancel   context.CancelFunc
	ctx      context.Context
	listener net.Listener
	object   interface{}
	server   *http.Server

	Logger bslogger.Logger
	Name   string
	WG     *sync.WaitGroup
}

func NewWsServer(object interface{}, address string, name string) *WsServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &WsServer{
		address: address,
		cancel:  cancel,
		ctx:     ctx,
		object:  object,
		Logger:  bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:    name,
		WG:      &sync.WaitGroup{},
	}
}

func (ws *WsServer) Run() error {
	handler := rpc.NewServer()
	err := handler.Register(ws.object)
	if err != nil {
		ws.Logger.Error("Registering object")
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebsocketPath, func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			ws.Logger.Warningf("Accepting websocket from %s - %s", r.RemoteAddr, err)
			return
		}
		c.SetReadLimit(maxMessageSize)

		ws.Logger.Infof("Server opened websocket to client at address %s", r.RemoteAddr)
		handler.ServeConn(websocket.NetConn(ws.ctx, c, websocket.MessageBinary))
	})

	ws.listener, err = net.Listen("tcp", ws.address)
	if err != nil {
		ws.Logger.Errorf("Listening at address %s", ws.address)
		return err
	}
	ws.address = ws.listener.Addr().String()

	ws.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ws.WG.Add(1)
	go func() {
		defer ws.WG.Done()
		if err := ws.server.Serve(ws.listener); !errors.Is(err, http.ErrServerClosed) {
			ws.Logger.Errorf("Serving at address %s - %s", ws.address, err)
		}
	}()

	ws.Logger.Infof("Running websocket server at address %s%s", ws.address, WebsocketPath)
	return nil
}

func (ws *WsServer) Address() string {
	return ws.address
}

func (ws *WsServer) Stop() error {
	ws.Logger.Infof("Shutting down server at address %s", ws.address)

	// Hijacked websocket connections are not tracked by the http server; cancelling the
	// context closes them.
	ws.cancel()
	if ws.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.Logger.Errorf("Shutting down server at address %s", ws.address)
		return err
	}
	ws.WG.Wait()
	return nil
}

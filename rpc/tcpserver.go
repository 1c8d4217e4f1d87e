package rpc

import (
	"errors"
	"github.com/BrugadaSyndrome/bslogger"
	"net"
	"net/rpc"
	"sync"
	"time"
)

// acceptPoll is how long Accept blocks before the shutdown channel is checked again.
const acceptPoll = time.Second

// TcpServer serves rpc over plain tcp connections, one gob stream per connection.
type TcpServer struct {
	address  string
	conns    map[net.Conn]struct{}
	listener *net.TCPListener
	mutex    sync.Mutex
	object   interface{}
	shutdown chan struct{}

	Logger bslogger.Logger
	Name   string
	WG     *sync.WaitGroup
}

func NewTcpServer(object interface{}, address string, name string) *TcpServer {
	return &TcpServer{
		address:  address,
		conns:    make(map[net.Conn]struct{}),
		object:   object,
		shutdown: make(chan struct{}),
		Logger:   bslogger.NewLogger(name, bslogger.Normal, nil),
		Name:     name,
		WG:       &sync.WaitGroup{},
	}
}

func (ts *TcpServer) Run() error {
	handler := rpc.NewServer()
	if err := handler.Register(ts.object); err != nil {
		ts.Logger.Error("Registering object")
		return err
	}

	tcpAddress, err := net.ResolveTCPAddr("tcp", ts.address)
	if err != nil {
		ts.Logger.Errorf("Resolving tcp address %s", ts.address)
		return err
	}
	ts.listener, err = net.ListenTCP("tcp", tcpAddress)
	if err != nil {
		ts.Logger.Errorf("Listening at address %s", ts.address)
		return err
	}
	ts.address = ts.listener.Addr().String()

	ts.WG.Add(1)
	go ts.acceptLoop(handler)

	ts.Logger.Infof("Running server at address %s", ts.address)
	return nil
}

func (ts *TcpServer) acceptLoop(handler *rpc.Server) {
	defer ts.WG.Done()
	defer ts.listener.Close()

	for {
		select {
		case <-ts.shutdown:
			return
		default:
		}

		ts.listener.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := ts.listener.Accept()
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				ts.Logger.Warningf("Accepting connection at address %s - %s", ts.address, err)
			}
			continue
		}

		if !ts.track(conn) {
			conn.Close()
			return
		}
		ts.Logger.Infof("Server opened connection to client at address %s", conn.RemoteAddr())
		go func() {
			handler.ServeConn(conn)
			ts.untrack(conn)
		}()
	}
}

// track records conn so Stop can close it. It reports false once the server is stopping.
func (ts *TcpServer) track(conn net.Conn) bool {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if ts.conns == nil {
		return false
	}
	ts.conns[conn] = struct{}{}
	return true
}

func (ts *TcpServer) untrack(conn net.Conn) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	delete(ts.conns, conn)
}

// Address is the address the server listens on, with the port resolved once Run has returned.
func (ts *TcpServer) Address() string {
	return ts.address
}

// Stop closes the listener and every open connection. Calling it again does nothing.
func (ts *TcpServer) Stop() error {
	ts.mutex.Lock()
	conns := ts.conns
	ts.conns = nil
	ts.mutex.Unlock()
	if conns == nil {
		return nil
	}

	ts.Logger.Infof("Shutting down server at address %s", ts.address)
	close(ts.shutdown)
	for conn := range conns {
		if err := conn.Close(); err != nil {
			ts.Logger.Debugf("Closing connection to %s - %s", conn.RemoteAddr(), err)
		}
	}
	ts.WG.Wait()
	return nil
}

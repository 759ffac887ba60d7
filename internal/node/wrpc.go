package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/syncstate"
)

// RPC is a connection to the node's RPC endpoint.
type RPC interface {
	// Connect dials the endpoint, performs the handshake and subscribes to
	// notifications.
	Connect(ctx context.Context) (syncstate.ServerInfo, error)
	// Notifications is closed when the connection is lost.
	Notifications() <-chan syncstate.Notification
	Close() error
}

// wRPC method names.
const (
	methodGetServerInfo     = "getServerInfo"
	methodSubscribeDaaScore = "subscribeVirtualDaaScoreChanged"
	notifyDaaScoreChanged   = "virtualDaaScoreChangedNotification"
	notifySyncStateChanged  = "syncStateChangedNotification"
	notifyNetworkLoad       = "networkLoadNotification"
)

const (
	notificationBufferSize = 64
	writeTimeout           = 5 * time.Second
)

// ErrConnectionClosed is returned for calls on a closed connection.
var ErrConnectionClosed = errors.New("rpc connection closed")

type rpcMessage struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Message string `json:"message"`
}

type serverInfoResponse struct {
	ServerVersion   string `json:"serverVersion"`
	NetworkID       string `json:"networkId"`
	IsSynced        bool   `json:"isSynced"`
	VirtualDaaScore uint64 `json:"virtualDaaScore"`
}

type daaScoreParams struct {
	VirtualDaaScore uint64 `json:"virtualDaaScore"`
}

type syncStateParams struct {
	Phase     string  `json:"phase"`
	Level     uint64  `json:"level"`
	Processed uint64  `json:"processed"`
	Total     uint64  `json:"total"`
	Progress  float64 `json:"progress"`
}

type networkLoadParams struct {
	Load float32 `json:"load"`
}

// WRPCClient speaks the node's JSON wRPC protocol over a websocket.
type WRPCClient struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex
	nextID  atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcMessage

	notifications chan syncstate.Notification
	closed        chan struct{}
	closeOnce     sync.Once
}

// NewWRPCClient creates a client for url. Each client serves one connection.
func NewWRPCClient(url string, handshakeTimeout time.Duration, logger *zap.Logger) *WRPCClient {
	return &WRPCClient{
		url:           url,
		dialer:        &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger:        logger.Named("wrpc"),
		pending:       make(map[uint64]chan rpcMessage),
		notifications: make(chan syncstate.Notification, notificationBufferSize),
		closed:        make(chan struct{}),
	}
}

// URL returns the endpoint the client dials.
func (c *WRPCClient) URL() string { return c.url }

func (c *WRPCClient) Connect(ctx context.Context) (syncstate.ServerInfo, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return syncstate.ServerInfo{}, fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	go c.readLoop()

	var info serverInfoResponse
	if err := c.call(ctx, methodGetServerInfo, &info); err != nil {
		_ = c.Close()
		return syncstate.ServerInfo{}, fmt.Errorf("handshake: %w", err)
	}
	network, err := model.ParseNetworkID(info.NetworkID)
	if err != nil {
		c.logger.Warn("node reported unknown network", zap.String("network", info.NetworkID))
		network = model.NetworkID(info.NetworkID)
	}

	if err := c.call(ctx, methodSubscribeDaaScore, nil); err != nil {
		_ = c.Close()
		return syncstate.ServerInfo{}, fmt.Errorf("subscribe: %w", err)
	}

	return syncstate.ServerInfo{
		Version:  info.ServerVersion,
		Network:  network,
		IsSynced: info.IsSynced,
		DaaScore: info.VirtualDaaScore,
	}, nil
}

func (c *WRPCClient) Notifications() <-chan syncstate.Notification {
	return c.notifications
}

func (c *WRPCClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn == nil {
			return
		}
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// call sends a request and waits for the response with the same id.
// A nil out discards the response params.
func (c *WRPCClient) call(ctx context.Context, method string, out any) error {
	id := c.nextID.Add(1)
	reply := make(chan rpcMessage, 1)

	c.pendingMu.Lock()
	c.pending[id] = reply
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	req := rpcMessage{ID: &id, Method: method, Params: json.RawMessage(`{}`)}
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return ErrConnectionClosed
		}
		if msg.Error != nil {
			return fmt.Errorf("%s: %s", method, msg.Error.Message)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(msg.Params, out); err != nil {
			return fmt.Errorf("decode %s: %w", method, err)
		}
		return nil
	case <-c.closed:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WRPCClient) readLoop() {
	defer func() {
		c.pendingMu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
		close(c.notifications)
	}()

	for {
		var msg rpcMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Info("rpc connection lost", zap.Error(err))
			}
			return
		}

		if msg.ID != nil {
			c.pendingMu.Lock()
			ch, ok := c.pending[*msg.ID]
			c.pendingMu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}

		n, err := decodeNotification(msg)
		if err != nil {
			c.logger.Debug("skipping notification", zap.String("method", msg.Method), zap.Error(err))
			continue
		}
		if n == nil {
			continue
		}
		select {
		case c.notifications <- n:
		case <-c.closed:
			return
		}
	}
}

// decodeNotification returns nil for methods the client does not track.
func decodeNotification(msg rpcMessage) (syncstate.Notification, error) {
	switch msg.Method {
	case notifyDaaScoreChanged:
		var p daaScoreParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, err
		}
		return syncstate.DaaScoreChanged{Score: p.VirtualDaaScore}, nil

	case notifySyncStateChanged:
		var p syncStateParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, err
		}
		phase, err := model.ParseSyncPhase(p.Phase)
		if err != nil {
			return nil, err
		}
		return syncstate.SyncStateChanged{State: model.SyncState{
			Phase:     phase,
			Level:     p.Level,
			Processed: p.Processed,
			Total:     p.Total,
			Progress:  p.Progress,
		}}, nil

	case notifyNetworkLoad:
		var p networkLoadParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return nil, err
		}
		return syncstate.NetworkLoadChanged{Load: p.Load}, nil
	}
	return nil, nil
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenSupplier returns the access token for a (re)connection attempt.
type TokenSupplier func(ctx context.Context) (string, error)

// DefaultReconnectDelays waits before each connection attempt; the last delay repeats.
var DefaultReconnectDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

const (
	defaultPingInterval  = 15 * time.Second
	defaultServerTimeout = 30 * time.Second
	maxNegotiateRedirect = 5
)

var errNoToken = errors.New("no access token for realtime connection")

type Options struct {
	HubURL          string // e.g. http://localhost:5000/realtimeNotifications
	Token           TokenSupplier
	State           *State
	HTTPClient      *http.Client
	Dialer          *websocket.Dialer
	ReconnectDelays []time.Duration
	PingInterval    time.Duration
	ServerTimeout   time.Duration
	Logger          *zerolog.Logger
}

// Channel keeps one hub connection open for the process and feeds State.
type Channel struct {
	opts  Options
	state *State
	log   zerolog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	connMu    sync.RWMutex
	connected bool
}

func New(opts Options) *Channel {
	if opts.State == nil {
		opts.State = NewState()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	}
	if len(opts.ReconnectDelays) == 0 {
		opts.ReconnectDelays = DefaultReconnectDelays
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.ServerTimeout <= 0 {
		opts.ServerTimeout = defaultServerTimeout
	}
	logger := log.With().Str("component", "realtime").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Channel{opts: opts, state: opts.State, log: logger}
}

func (c *Channel) State() *State {
	return c.state
}

// Start launches the connection loop on first call; later calls do nothing until
// Stop. The loop outlives ctx's cancellation but keeps its values.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx, cancel, c.done)
}

// Stop closes the connection and waits for the loop to exit. The channel can be
// started again afterwards.
func (c *Channel) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.started = false
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Channel) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Channel) Connected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Channel) setConnected(v bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.connected = v
}

func (c *Channel) delay(attempt uint) time.Duration {
	delays := c.opts.ReconnectDelays
	if int(attempt) >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempt]
}

func (c *Channel) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer c.setConnected(false)

	for ctx.Err() == nil {
		var conn *websocket.Conn
		err := retry.Do(
			func() error {
				var err error
				conn, err = c.connect(ctx)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(0),
			retry.LastErrorOnly(true),
			retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
				return c.delay(n + 1)
			}),
			retry.OnRetry(func(n uint, err error) {
				c.log.Warn().Err(err).Uint("attempt", n+1).Dur("next_in", c.delay(n+1)).Msg("realtime connection failed")
			}),
		)
		if err != nil {
			// Only a cancelled context ends an unlimited retry.
			return
		}

		c.setConnected(true)
		c.log.Info().Str("hub", c.opts.HubURL).Msg("realtime connection established")
		err = c.serve(ctx, conn)
		c.setConnected(false)

		var closeErr *closeError
		if errors.As(err, &closeErr) && !closeErr.allowReconnect {
			c.log.Warn().Err(err).Msg("realtime connection closed by server without reconnect")
			c.mu.Lock()
			c.started = false
			c.mu.Unlock()
			return
		}
		if ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("realtime connection lost, reconnecting")
		}
	}
}

// connect negotiates, dials and completes the handshake. The token supplier is
// asked on every attempt.
func (c *Channel) connect(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.opts.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("[realtime connect] token: %w", err)
	}
	if token == "" {
		return nil, errNoToken
	}

	hubURL := c.opts.HubURL
	var neg *negotiateResponse
	for i := 0; ; i++ {
		if neg, err = c.negotiate(ctx, hubURL, token); err != nil {
			return nil, err
		}
		if neg.URL == "" {
			break
		}
		if i >= maxNegotiateRedirect {
			return nil, errors.New("[realtime connect] too many negotiate redirects")
		}
		hubURL = neg.URL
		if neg.AccessToken != "" {
			token = neg.AccessToken
		}
	}

	wsURL, err := websocketURL(hubURL, neg.ConnectionToken, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := c.opts.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("[realtime connect] dial: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("[realtime connect] dial: %w", err)
	}

	if err := c.handshake(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Channel) negotiate(ctx context.Context, hubURL, token string) (*negotiateResponse, error) {
	u, err := url.Parse(strings.TrimSuffix(hubURL, "/") + "/negotiate")
	if err != nil {
		return nil, fmt.Errorf("[realtime negotiate] invalid hub url: %w", err)
	}
	q := u.Query()
	q.Set("negotiateVersion", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("[realtime negotiate] %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[realtime negotiate] %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[realtime negotiate] unexpected status %s", resp.Status)
	}

	var neg negotiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&neg); err != nil {
		return nil, fmt.Errorf("[realtime negotiate] decode: %w", err)
	}
	if neg.Error != "" {
		return nil, fmt.Errorf("[realtime negotiate] %s", neg.Error)
	}
	if neg.ConnectionToken == "" {
		neg.ConnectionToken = neg.ConnectionID
	}
	return &neg, nil
}

func websocketURL(hubURL, connectionToken, token string) (string, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return "", fmt.Errorf("[realtime websocketURL] %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	if connectionToken != "" {
		q.Set("id", connectionToken)
	}
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Channel) handshake(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.ServerTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, handshakeRequest); err != nil {
		return fmt.Errorf("[realtime handshake] write: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.opts.ServerTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("[realtime handshake] read: %w", err)
	}
	records := splitRecords(data)
	if len(records) == 0 {
		return errors.New("[realtime handshake] empty response")
	}
	var hs handshakeResponse
	if err := json.Unmarshal(records[0], &hs); err != nil {
		return fmt.Errorf("[realtime handshake] decode: %w", err)
	}
	if hs.Error != "" {
		return fmt.Errorf("[realtime handshake] rejected: %s", hs.Error)
	}
	// Messages that arrived in the same frame as the handshake response.
	for _, record := range records[1:] {
		if err := c.handleRecord(conn, &sync.Mutex{}, record); err != nil {
			return err
		}
	}
	return nil
}

// serve reads hub messages until the connection ends, answering pings and keeping
// the connection alive with our own pings.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) error {
	var writeMu sync.Mutex
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			writeMu.Unlock()
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	go func() {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.write(conn, &writeMu, pingMessage); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ServerTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("[realtime serve] read: %w", err)
		}
		for _, record := range splitRecords(data) {
			if err := c.handleRecord(conn, &writeMu, record); err != nil {
				return err
			}
		}
	}
}

func (c *Channel) write(conn *websocket.Conn, mu *sync.Mutex, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.ServerTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Channel) handleRecord(conn *websocket.Conn, writeMu *sync.Mutex, record []byte) error {
	var msg hubMessage
	if err := json.Unmarshal(record, &msg); err != nil {
		c.log.Warn().Err(err).Msg("unreadable hub message")
		return nil
	}

	switch msg.Type {
	case messageInvocation:
		c.dispatch(msg)
	case messagePing:
		return c.write(conn, writeMu, pingMessage)
	case messageClose:
		return &closeError{message: msg.Error, allowReconnect: msg.AllowReconnect}
	}
	return nil
}

func (c *Channel) dispatch(msg hubMessage) {
	if len(msg.Arguments) == 0 {
		return
	}
	var n Notification
	if err := json.Unmarshal(msg.Arguments[0], &n); err != nil {
		c.log.Warn().Err(err).Str("target", msg.Target).Msg("unreadable notification")
		return
	}
	if !c.state.Apply(msg.Target, n) {
		c.log.Debug().Str("target", msg.Target).Msg("ignoring unknown hub target")
		return
	}
	c.log.Debug().Str("target", msg.Target).Str("type", n.Type).Float64("progress", n.ProgressPerc).Msg("notification")
}

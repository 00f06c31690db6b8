// Package bridge realizes the platform backend over a websocket: an on-device
// agent connects, streams UI events and answers tree, action, gesture and
// screenshot requests.
package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

func init() {
	platform.NewProviderFunc = NewProvider
}

// Options configures a Server.
type Options struct {
	Path           string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
	Clock          func() time.Time
}

// Server accepts one device agent at a time. A new connection replaces the
// previous one.
type Server struct {
	opts     Options
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	limiter  *rate.Limiter
	now      func() time.Time
	seq      atomic.Uint64

	mu        sync.Mutex
	conn      *websocket.Conn
	device    string
	bootTime  time.Time // host time at device uptime zero
	connected chan struct{}
	listener  func(model.Event)
	pending   map[string]chan reply
	gestures  map[string]func(platform.GestureStatus)
	httpSrv   *http.Server

	writeMu sync.Mutex
}

// New returns a Server that is not yet listening. Use it as an http.Handler
// or call Serve.
func New(opts Options) *Server {
	if opts.Path == "" {
		opts.Path = "/agent"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Server{
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 5 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(20), 20),
		now:       now,
		connected: make(chan struct{}),
		pending:   make(map[string]chan reply),
		gestures:  make(map[string]func(platform.GestureStatus)),
	}
}

// NewProvider starts a bridge listening on opts.Listen and returns it as a
// platform Provider.
func NewProvider(opts platform.Options) (*platform.Provider, error) {
	s := New(Options{Path: opts.Path, RequestTimeout: opts.RequestTimeout, Logger: opts.Logger})
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return nil, fmt.Errorf("bridge listen %s: %w", opts.Listen, err)
	}
	go s.Serve(ln)
	return s.Provider(), nil
}

// Provider returns s as a platform Provider bundle.
func (s *Server) Provider() *platform.Provider {
	return &platform.Provider{
		Tree:       s,
		Gestures:   s,
		Actions:    s,
		Screenshot: s,
		Announcer:  s,
		Events:     s,
		Connector:  s,
		Closer:     s,
	}
}

// Serve accepts agent connections on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.opts.Path, s)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Str("path", s.opts.Path).Msg("bridge listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("bridge server stopped")
		return err
	}
	return nil
}

// Close drops the agent connection and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	conn := s.conn
	srv := s.httpSrv
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return nil
}

// ServeHTTP upgrades an agent connection and runs its read loop. Events are
// delivered to the listener on this goroutine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("agent upgrade failed")
		return
	}
	s.attach(conn)
	defer s.detach(conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("agent read error")
			}
			return
		}
		s.handle(msg)
	}
}

func (s *Server) attach(conn *websocket.Conn) {
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()
	if old != nil {
		s.logger.Info().Msg("replacing previous agent connection")
		old.Close()
	}
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("agent connected")
}

// detach fails everything in flight on conn. Outstanding gestures are
// reported as cancelled.
func (s *Server) detach(conn *websocket.Conn) {
	conn.Close()

	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.device = ""
	s.bootTime = time.Time{}
	select {
	case <-s.connected:
		s.connected = make(chan struct{})
	default:
	}
	pending := s.pending
	s.pending = make(map[string]chan reply)
	gestures := s.gestures
	s.gestures = make(map[string]func(platform.GestureStatus))
	s.mu.Unlock()

	for _, ch := range pending {
		ch <- reply{err: "agent disconnected"}
	}
	for _, done := range gestures {
		done(platform.GestureCancelled)
	}
	s.logger.Info().Msg("agent disconnected")
}

func (s *Server) handle(msg []byte) {
	switch typ := gjson.GetBytes(msg, "type").String(); typ {
	case frameHello:
		s.onHello(gjson.ParseBytes(msg))
	case frameEvent:
		s.onEvent(gjson.GetBytes(msg, "event"))
	case frameResponse:
		id, r := parseReply(msg)
		s.mu.Lock()
		ch, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if !ok {
			s.logger.Debug().Str("id", id).Msg("response for unknown request")
			return
		}
		ch <- r
	case frameGestureResult:
		id := gjson.GetBytes(msg, "id").String()
		status, err := platform.ParseGestureStatus(gjson.GetBytes(msg, "status").String())
		if err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg("bad gesture result")
		}
		s.mu.Lock()
		done, ok := s.gestures[id]
		delete(s.gestures, id)
		s.mu.Unlock()
		if ok {
			done(status)
		}
	default:
		s.logger.Warn().Str("type", typ).Msg("unknown frame type")
	}
}

func (s *Server) onHello(v gjson.Result) {
	device := v.Get("device").String()
	uptime := time.Duration(v.Get("uptime_ms").Int()) * time.Millisecond

	s.mu.Lock()
	s.device = device
	s.bootTime = s.now().Add(-uptime)
	select {
	case <-s.connected:
	default:
		close(s.connected)
	}
	s.mu.Unlock()
	s.logger.Info().Str("device", device).Dur("uptime", uptime).Msg("agent hello")
}

func (s *Server) onEvent(v gjson.Result) {
	ev := parseEvent(v, s.hostTime)
	if s.limiter.Allow() {
		s.logger.Debug().Str("kind", ev.TypeName()).Time("at", ev.Time).Msg("event")
	}
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// hostTime maps a device uptime stamp to the host clock. Events without a
// stamp, or before hello, get the receive time.
func (s *Server) hostTime(uptimeMS int64) time.Time {
	s.mu.Lock()
	boot := s.bootTime
	s.mu.Unlock()
	if uptimeMS <= 0 || boot.IsZero() {
		return s.now()
	}
	return boot.Add(time.Duration(uptimeMS) * time.Millisecond)
}

// Device returns the name the agent reported in hello.
func (s *Server) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// WaitConnected blocks until an agent has said hello.
func (s *Server) WaitConnected(ctx context.Context) error {
	s.mu.Lock()
	ch := s.connected
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", platform.ErrNotConnected, ctx.Err())
	}
}

func (s *Server) nextID() string {
	return strconv.FormatUint(s.seq.Add(1), 10)
}

func (s *Server) send(conn *websocket.Conn, req request) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(s.now().Add(s.opts.RequestTimeout))
	return conn.WriteJSON(req)
}

// call sends a request and waits for its response.
func (s *Server) call(ctx context.Context, id, method string, params interface{}) (gjson.Result, error) {
	ch := make(chan reply, 1)
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return gjson.Result{}, platform.ErrNotConnected
	}
	s.pending[id] = ch
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}

	if err := s.send(conn, request{Type: "request", ID: id, Method: method, Params: params}); err != nil {
		release()
		return gjson.Result{}, fmt.Errorf("%s: send: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	select {
	case r := <-ch:
		if !r.ok {
			return gjson.Result{}, fmt.Errorf("%s: %s", method, r.err)
		}
		return r.result, nil
	case <-ctx.Done():
		release()
		return gjson.Result{}, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// SetListener registers the event ingress. Only one listener is kept.
func (s *Server) SetListener(fn func(model.Event)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

func (s *Server) Root(ctx context.Context) (*model.Node, error) {
	res, err := s.call(ctx, s.nextID(), methodRoot, nil)
	if err != nil {
		return nil, err
	}
	n, err := parseNode(res.Get("root"))
	if err != nil {
		return nil, fmt.Errorf("root: decode: %w", err)
	}
	return n, nil
}

func (s *Server) AccessibilityFocus(ctx context.Context) (*model.Node, bool, error) {
	res, err := s.call(ctx, s.nextID(), methodFocus, nil)
	if err != nil {
		return nil, false, err
	}
	n, err := parseNode(res.Get("node"))
	if err != nil {
		return nil, false, fmt.Errorf("focus: decode: %w", err)
	}
	return n, n != nil, nil
}

func (s *Server) PerformAction(ctx context.Context, ref string, action platform.Action) (bool, error) {
	res, err := s.call(ctx, s.nextID(), methodPerformAction, actionParams{Ref: ref, Action: int(action)})
	if err != nil {
		return false, err
	}
	return res.Get("performed").Bool(), nil
}

// Dispatch sends the gesture and returns once the agent accepted it. The
// completion arrives later as a gesture_result frame with the same id.
func (s *Server) Dispatch(ctx context.Context, path model.GesturePath, done func(platform.GestureStatus)) error {
	id := s.nextID()
	var once sync.Once
	report := func(st platform.GestureStatus) {
		once.Do(func() {
			if done != nil {
				done(st)
			}
		})
	}

	s.mu.Lock()
	s.gestures[id] = report
	s.mu.Unlock()

	if _, err := s.call(ctx, id, methodDispatchGesture, newGestureParams(path)); err != nil {
		s.mu.Lock()
		_, stillPending := s.gestures[id]
		delete(s.gestures, id)
		s.mu.Unlock()
		if !stillPending {
			// Completion already reported; the gesture ran.
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Screenshot(ctx context.Context) (image.Image, error) {
	res, err := s.call(ctx, s.nextID(), methodScreenshot, nil)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(res.Get("png").String())
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode base64: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode png: %w", err)
	}
	return img, nil
}

func (s *Server) Announce(ctx context.Context, text string) error {
	_, err := s.call(ctx, s.nextID(), methodAnnounce, announceParams{Text: text})
	return err
}

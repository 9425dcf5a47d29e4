package racenet

import (
	"context"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	quic "github.com/quic-go/quic-go"

	"github.com/DarkStar1997/stk-code/common"
)

// Feed publishes clock snapshots to every connected subscriber.
type Feed struct {
	cfg      common.FeedConfig
	log      *log.Logger
	quicConf *quic.Config

	ln *quic.Listener

	// pubMu serializes Publish so frames never interleave on a stream.
	pubMu sync.Mutex

	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
}

type subscriber struct {
	id     uint64
	conn   *quic.Conn
	stream *quic.Stream
}

func NewFeed(cfg common.FeedConfig, logger *log.Logger) *Feed {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Feed{
		cfg:      cfg,
		log:      logger,
		quicConf: QUICConfig(cfg),
		subs:     make(map[uint64]*subscriber),
	}
}

// Listen binds the feed to addr. Use ":0" to pick a free port and Addr to
// find it.
func (f *Feed) Listen(addr string) error {
	tlsConf, err := NewQUICServerTLSConfig()
	if err != nil {
		return errors.Wrap(err, "server tls config")
	}
	ln, err := quic.ListenAddr(addr, tlsConf, f.quicConf)
	if err != nil {
		return errors.Wrapf(err, "quic listen %s", addr)
	}
	f.ln = ln
	f.log.Info("feed: listening", "addr", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (f *Feed) Addr() net.Addr {
	if f.ln == nil {
		return nil
	}
	return f.ln.Addr()
}

// Serve accepts subscribers until ctx is done.
func (f *Feed) Serve(ctx context.Context) error {
	if f.ln == nil {
		return errors.New("feed: Serve before Listen")
	}
	for {
		conn, err := f.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "quic accept")
		}
		go f.handleIncomingConn(ctx, conn)
	}
}

func (f *Feed) handleIncomingConn(ctx context.Context, conn *quic.Conn) {
	st, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return
	}

	if err := f.exchangeHello(st); err != nil {
		f.log.Warn("feed: hello failed", "remote", conn.RemoteAddr(), "err", err)
		CloseQUIC(conn, st, "hello failed")
		return
	}

	id := f.add(conn, st)
	f.log.Info("feed: subscriber joined", "id", id, "remote", conn.RemoteAddr())

	go func() {
		<-conn.Context().Done()
		if f.remove(id) {
			f.log.Info("feed: subscriber left", "id", id)
		}
	}()
}

// exchangeHello answers the subscriber's hello on st.
func (f *Feed) exchangeHello(st *quic.Stream) error {
	fr := newFrameReader(st, f.cfg.FrameSize)
	if err := readHello(fr, roleSubscriber, f.cfg.HandshakeTimeout); err != nil {
		return err
	}
	return writeHello(st, roleFeed, f.cfg.FrameSize, f.cfg.HandshakeTimeout)
}

// Publish sends snap to all subscribers and returns how many received it.
// Subscribers whose stream fails are dropped.
func (f *Feed) Publish(snap common.ClockSnapshot) (int, error) {
	frame, err := EncodeSnapshot(snap, f.cfg.FrameSize)
	if err != nil {
		return 0, err
	}

	f.pubMu.Lock()
	defer f.pubMu.Unlock()

	var failed []uint64
	delivered := 0

	f.mu.RLock()
	for id, s := range f.subs {
		if err := writeFrame(s.stream, frame, f.cfg.WriteTimeout); err != nil {
			f.log.Warn("feed: dropping subscriber", "id", id, "err", err)
			failed = append(failed, id)
			continue
		}
		delivered++
	}
	f.mu.RUnlock()

	for _, id := range failed {
		f.remove(id)
	}
	return delivered, nil
}

// Subscribers returns the number of connected subscribers.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Close disconnects all subscribers and stops listening.
func (f *Feed) Close() error {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[uint64]*subscriber)
	f.mu.Unlock()

	for _, s := range subs {
		CloseQUIC(s.conn, s.stream, "feed closed")
	}
	if f.ln != nil {
		return f.ln.Close()
	}
	return nil
}

func (f *Feed) add(conn *quic.Conn, st *quic.Stream) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.subs[f.nextID] = &subscriber{id: f.nextID, conn: conn, stream: st}
	return f.nextID
}

func (f *Feed) remove(id uint64) bool {
	f.mu.Lock()
	s, ok := f.subs[id]
	delete(f.subs, id)
	f.mu.Unlock()

	if ok {
		CloseQUIC(s.conn, s.stream, "bye")
	}
	return ok
}

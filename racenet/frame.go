package racenet

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"

	"github.com/DarkStar1997/stk-code/common"
)

// Frame layout, zero-padded to the configured frame size:
//
//	magic uint32 | kind uint8 | length uint16 | CBOR payload
const (
	frameMagic uint32 = 0x52434C4B // "RCLK"
	headerSize        = 4 + 1 + 2
	// protocolVersion is carried in hello frames.
	protocolVersion = 1
)

type frameKind uint8

const (
	kindHello    frameKind = 1
	kindSnapshot frameKind = 2
)

var (
	ErrBadFrame      = errors.New("bad frame")
	ErrFrameTooLarge = errors.New("payload too large for frame")
)

// hello is exchanged once per stream: subscriber first, then the feed.
type hello struct {
	Role    string `cbor:"role"`
	Version int    `cbor:"v"`
}

const (
	roleFeed       = "feed"
	roleSubscriber = "subscriber"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("racenet: CBOR encoder initialization failed: " + err.Error())
	}
}

// encodeFrame returns a complete frame of frameSize bytes.
func encodeFrame(kind frameKind, v any, frameSize int) ([]byte, error) {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	payload, err := encMode.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame payload")
	}
	if headerSize+len(payload) > frameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d > %d", headerSize+len(payload), frameSize)
	}

	b := make([]byte, frameSize)
	binary.BigEndian.PutUint32(b[0:4], frameMagic)
	b[4] = byte(kind)
	binary.BigEndian.PutUint16(b[5:7], uint16(len(payload)))
	copy(b[headerSize:], payload)
	return b, nil
}

func decodeFrame(frame []byte) (frameKind, []byte, error) {
	if len(frame) < headerSize {
		return 0, nil, errors.Wrapf(ErrBadFrame, "short frame (%d bytes)", len(frame))
	}
	if binary.BigEndian.Uint32(frame[0:4]) != frameMagic {
		return 0, nil, errors.Wrap(ErrBadFrame, "magic mismatch")
	}
	kind := frameKind(frame[4])
	n := int(binary.BigEndian.Uint16(frame[5:7]))
	if headerSize+n > len(frame) {
		return 0, nil, errors.Wrapf(ErrBadFrame, "payload length %d exceeds frame", n)
	}
	return kind, frame[headerSize : headerSize+n], nil
}

// writeFrame writes one encoded frame, bounded by timeout when w supports
// write deadlines.
func writeFrame(w io.Writer, frame []byte, timeout time.Duration) error {
	if w == nil {
		return errors.New("write frame: nil writer")
	}
	if d, ok := w.(interface{ SetWriteDeadline(time.Time) error }); ok && timeout > 0 {
		_ = d.SetWriteDeadline(time.Now().Add(timeout))
		defer d.SetWriteDeadline(time.Time{})
	}
	// io.Writer must not return a short count without an error.
	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// frameReader reads fixed-size frames off a stream. A corrupt frame is
// reported as ErrBadFrame and the reader stays aligned on the next one.
type frameReader struct {
	r   io.Reader
	buf []byte
}

func newFrameReader(r io.Reader, frameSize int) *frameReader {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &frameReader{r: r, buf: make([]byte, frameSize)}
}

// next returns the kind and payload of the next frame. The payload is only
// valid until the following call. A trailing partial frame reads as io.EOF.
func (fr *frameReader) next(timeout time.Duration) (frameKind, []byte, error) {
	if fr.r == nil {
		return 0, nil, errors.New("read frame: nil reader")
	}
	if d, ok := fr.r.(interface{ SetReadDeadline(time.Time) error }); ok && timeout > 0 {
		_ = d.SetReadDeadline(time.Now().Add(timeout))
		defer d.SetReadDeadline(time.Time{})
	}
	if _, err := io.ReadFull(fr.r, fr.buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, err
	}
	return decodeFrame(fr.buf)
}

// EncodeSnapshot builds the complete frame for snap.
func EncodeSnapshot(snap common.ClockSnapshot, frameSize int) ([]byte, error) {
	return encodeFrame(kindSnapshot, snap, frameSize)
}

// DecodeSnapshot parses a snapshot frame.
func DecodeSnapshot(frame []byte) (common.ClockSnapshot, error) {
	kind, payload, err := decodeFrame(frame)
	if err != nil {
		return common.ClockSnapshot{}, err
	}
	return snapshotFrom(kind, payload)
}

func snapshotFrom(kind frameKind, payload []byte) (common.ClockSnapshot, error) {
	var snap common.ClockSnapshot
	if kind != kindSnapshot {
		return snap, errors.Wrapf(ErrBadFrame, "unexpected frame kind %d", kind)
	}
	if err := cbor.Unmarshal(payload, &snap); err != nil {
		return snap, errors.Wrap(err, "decode snapshot")
	}
	return snap, nil
}

func encodeHello(role string, frameSize int) ([]byte, error) {
	return encodeFrame(kindHello, hello{Role: role, Version: protocolVersion}, frameSize)
}

func writeHello(w io.Writer, role string, frameSize int, timeout time.Duration) error {
	frame, err := encodeHello(role, frameSize)
	if err != nil {
		return err
	}
	return errors.Wrap(writeFrame(w, frame, timeout), "send hello")
}

func readHello(fr *frameReader, wantRole string, timeout time.Duration) error {
	kind, payload, err := fr.next(timeout)
	if err != nil {
		return errors.Wrap(err, "read hello")
	}
	return checkHello(kind, payload, wantRole)
}

func checkHello(kind frameKind, payload []byte, wantRole string) error {
	if kind != kindHello {
		return errors.Wrapf(ErrBadFrame, "expected hello, got kind %d", kind)
	}
	var h hello
	if err := cbor.Unmarshal(payload, &h); err != nil {
		return errors.Wrap(err, "decode hello")
	}
	if h.Role != wantRole {
		return errors.Wrapf(ErrBadFrame, "hello from %q, want %q", h.Role, wantRole)
	}
	if h.Version != protocolVersion {
		return errors.Wrapf(ErrBadFrame, "protocol version %d, want %d", h.Version, protocolVersion)
	}
	return nil
}

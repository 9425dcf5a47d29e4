package racenet

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	quic "github.com/quic-go/quic-go"

	"github.com/DarkStar1997/stk-code/common"
)

const (
	FeedALPN = "raceclock-feed"
	// DefaultFrameSize is used when a caller passes a non-positive frame size.
	DefaultFrameSize = 256

	certLifetime = 24 * time.Hour
)

// NewQUICServerTLSConfig returns a TLS config with a throwaway self-signed
// ECDSA certificate, valid for a day. The feed is a LAN display feed;
// subscribers do not authenticate it.
func NewQUICServerTLSConfig() (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate feed key")
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, errors.Wrap(err, "certificate serial")
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "racetimer feed"},
		DNSNames:              []string{"localhost"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(certLifetime),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		return nil, errors.Wrap(err, "self-sign feed certificate")
	}

	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{FeedALPN},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// NewQUICClientTLSConfig skips verification of the feed's self-signed
// certificate but still insists on the feed protocol.
func NewQUICClientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // self-signed LAN feed
		NextProtos:         []string{FeedALPN},
		MinVersion:         tls.VersionTLS13,
	}
}

// QUICConfig derives the transport settings from the feed config.
func QUICConfig(cfg common.FeedConfig) *quic.Config {
	return &quic.Config{
		KeepAlivePeriod:      cfg.KeepAlive,
		HandshakeIdleTimeout: cfg.HandshakeTimeout,
		MaxIdleTimeout:       cfg.MaxIdle,
	}
}

// DialQUIC connects to remoteAddr and opens the single bidirectional stream
// the feed protocol uses.
func DialQUIC(
	ctx context.Context,
	remoteAddr string,
	quicConf *quic.Config,
	openStreamTimeout time.Duration,
) (*quic.Conn, *quic.Stream, error) {
	conn, err := quic.DialAddr(ctx, remoteAddr, NewQUICClientTLSConfig(), quicConf)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "quic dial %s", remoteAddr)
	}

	stCtx := ctx
	if openStreamTimeout > 0 {
		var cancel context.CancelFunc
		stCtx, cancel = context.WithTimeout(ctx, openStreamTimeout)
		defer cancel()
	}

	stream, err := conn.OpenStreamSync(stCtx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, nil, errors.Wrap(err, "open stream")
	}
	return conn, stream, nil
}

// CloseQUIC closes the stream and the connection; nil values are ignored.
func CloseQUIC(conn *quic.Conn, stream *quic.Stream, reason string) {
	if stream != nil {
		_ = stream.Close()
	}
	if conn != nil {
		_ = conn.CloseWithError(0, reason)
	}
}

// Package transport delivers formatted entries to a collector over a single
// long-lived TCP or TLS connection.
//
// Entries are queued and written by one background sender. The queue drops
// its oldest entries when full, so producers never block. When a write
// fails the sender reconnects with exponential backoff and writes the same
// entry again, which may duplicate it on the collector side.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/trace"
	"github.com/tailship/tailship/pkg/types"
)

type Transport struct {
	config Config
	logger *log.Entry
	queue  *Queue
	t      tomb.Tomb

	proxy     contextDialer
	tlsConfig *tls.Config
	bo        *backoff.ExponentialBackOff

	// dial opens a connection to the destination. Replaced in tests.
	dial func(ctx context.Context) (net.Conn, error)
	// notify is called after each failed connection attempt.
	notify func(err error, wait time.Duration)

	conn net.Conn

	labels prometheus.Labels
}

// New creates a transport and starts its sender. Configuration errors
// (invalid proxy type, unreadable trust bundle) are logged; the transport
// still runs, without the proxy or failing every TLS handshake.
func New(config Config, logger *log.Entry) *Transport {
	t := newTransport(config, logger)
	t.start()

	return t
}

func newTransport(config Config, logger *log.Entry) *Transport {
	config = config.withDefaults()

	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	t := &Transport{
		config: config,
		logger: logger.WithField("destination", config.Destination()),
		queue:  NewQueue(config.QueueSize),
		labels: prometheus.Labels{"destination": config.Destination()},
	}

	t.bo = backoff.NewExponentialBackOff()
	t.bo.InitialInterval = config.MinDelay
	t.bo.Multiplier = 2
	t.bo.RandomizationFactor = 0
	t.bo.MaxInterval = config.MaxDelay
	t.bo.Reset()

	if err := config.Proxy.Validate(); err != nil {
		t.logger.Error(err)
	} else {
		p, err := newProxyDialer(config.Proxy, config.ConnectTimeout)
		if err != nil {
			t.logger.Errorf("proxy disabled: %s", err)
		}

		if p != nil {
			t.proxy = p
			t.logger.Infof("Using proxy with proxy_type: %s, proxy_host: %s, proxy_port: %d",
				config.Proxy.Type, config.Proxy.Host, config.Proxy.Port)
		}
	}

	if config.TLS {
		tlsConfig, err := newTLSConfig(config.Host, config.CAFile)
		if err != nil {
			t.logger.Errorf("cannot set up TLS: %s", err)
		}

		t.tlsConfig = tlsConfig
	}

	t.dial = t.dialDestination
	t.notify = func(err error, wait time.Duration) {
		t.logger.Debugf("retrying connection in %s", wait)
	}

	return t
}

func (t *Transport) start() {
	t.t.Go(func() error {
		t.run()
		return nil
	})
}

// Send queues an entry. It never blocks: if the queue is full the oldest
// queued entry is dropped.
func (t *Transport) Send(entry string) {
	if evicted := t.queue.Push(entry); evicted > 0 {
		metrics.TransportEntriesEvicted.With(t.labels).Add(float64(evicted))
	}

	metrics.TransportQueueLength.With(t.labels).Set(float64(t.queue.Len()))
}

// Close stops the sender and waits a bounded time for it to exit. Entries
// still queued are lost.
func (t *Transport) Close() {
	t.t.Kill(nil)
	// wake up the sender if it is waiting on the queue
	t.Send("")

	select {
	case <-t.t.Dead():
	case <-time.After(t.config.JoinTimeout):
		t.logger.Warning("sender did not stop in time")
	}
}

// QueueLen returns the number of entries waiting to be sent.
func (t *Transport) QueueLen() int {
	return t.queue.Len()
}

func (t *Transport) Destination() string {
	return t.config.Destination()
}

func (t *Transport) alive() bool {
	return t.t.Alive()
}

func (t *Transport) run() {
	t.connect()

	for t.alive() {
		t.step()
	}

	t.closeConn()
	t.logger.Debug("sender stopped")
}

func (t *Transport) step() {
	defer trace.CatchPanic("tailship/transport")

	entry, ok := t.queue.Pop(t.config.HeartbeatInterval, t.t.Dying())
	if !t.alive() {
		return
	}

	if !ok {
		entry = types.HeartbeatToken
		metrics.TransportHeartbeats.With(t.labels).Inc()
	}

	metrics.TransportQueueLength.With(t.labels).Set(float64(t.queue.Len()))

	t.sendEntry(entry + "\n")
}

// sendEntry writes entry, reconnecting as many times as needed, until it
// succeeds or the transport is closed.
func (t *Transport) sendEntry(entry string) {
	for t.alive() {
		if t.conn == nil {
			if !t.connect() {
				return
			}
		}

		err := t.write(entry)
		if err == nil {
			metrics.TransportEntriesSent.With(t.labels).Inc()

			if t.config.Debug {
				t.logger.Debugf("sent: %s", entry[:len(entry)-1])
			}

			return
		}

		t.logger.Debugf("write failed: %s", err)
		t.connect()
	}
}

func (t *Transport) write(data string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.config.ConnectTimeout)); err != nil {
		return err
	}

	_, err := t.conn.Write([]byte(data))

	return err
}

// connect (re)opens the connection and sends the preamble. It retries with
// exponential backoff until it succeeds or the transport is closed, in
// which case it returns false.
func (t *Transport) connect() bool {
	t.closeConn()
	t.bo.Reset()

	t.logger.Debugf("opening connection to %s", t.config.Destination())

	for t.alive() {
		err := t.tryConnect()
		if err == nil {
			t.logger.Infof("connected to %s", t.config.Destination())
			return true
		}

		if errors.Is(err, ErrCertificate) {
			t.logger.Error(err)
		} else {
			t.logger.Warningf("can't connect to %s: %s", t.config.Destination(), err)
		}

		metrics.TransportReconnects.With(t.labels).Inc()

		wait := t.bo.NextBackOff()
		t.notify(err, wait)

		select {
		case <-time.After(wait):
		case <-t.t.Dying():
			return false
		}
	}

	return false
}

func (t *Transport) tryConnect() error {
	ctx, cancel := context.WithTimeout(t.t.Context(context.Background()), t.config.ConnectTimeout)
	defer cancel()

	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}

	if t.config.Preamble != "" {
		if err := conn.SetWriteDeadline(time.Now().Add(t.config.ConnectTimeout)); err == nil {
			_, err = conn.Write([]byte(t.config.Preamble))
		}

		if err != nil {
			conn.Close()
			return fmt.Errorf("while sending preamble: %w", err)
		}
	}

	t.conn = conn

	return nil
}

func (t *Transport) dialDestination(ctx context.Context) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)

	port := strconv.Itoa(t.config.Port)

	if t.proxy != nil {
		// the proxy resolves the name
		conn, err = t.proxy.DialContext(ctx, "tcp", net.JoinHostPort(t.config.Host, port))
	} else {
		var addr string

		addr, err = resolveRandom(ctx, net.DefaultResolver, t.config.Host)
		if err != nil {
			return nil, fmt.Errorf("while resolving %s: %w", t.config.Host, err)
		}

		dialer := &net.Dialer{Timeout: t.config.ConnectTimeout}
		conn, err = dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
	}

	if err != nil {
		return nil, err
	}

	if !t.config.TLS {
		return conn, nil
	}

	if t.tlsConfig == nil {
		conn.Close()
		return nil, fmt.Errorf("%w for %s: no usable trust bundle", ErrCertificate, t.config.Host)
	}

	tlsConn := tls.Client(conn, t.tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()

		if isCertificateError(err) {
			return nil, fmt.Errorf("%w for %s: %w", ErrCertificate, t.config.Host, err)
		}

		return nil, fmt.Errorf("TLS handshake with %s failed: %w", t.config.Host, err)
	}

	return tlsConn, nil
}

func (t *Transport) closeConn() {
	if t.conn == nil {
		return
	}

	if err := t.conn.Close(); err != nil {
		t.logger.Tracef("while closing connection: %s", err)
	}

	t.conn = nil
}

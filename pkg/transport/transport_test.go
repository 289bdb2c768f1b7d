package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"

	"github.com/tailship/tailship/pkg/types"
)

// lineServer accepts any number of connections and forwards every line it
// reads on the lines channel.
type lineServer struct {
	ln    net.Listener
	lines chan string
	conns chan net.Conn
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &lineServer{ln: ln, lines: make(chan string, 1000), conns: make(chan net.Conn, 10)}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			s.conns <- conn

			go s.serve(conn)
		}
	}()

	t.Cleanup(func() { ln.Close() })

	return s
}

func (s *lineServer) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
}

func (s *lineServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *lineServer) next(t *testing.T) string {
	t.Helper()

	select {
	case line := <-s.lines:
		return line
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timeout waiting for a line")
	}

	return ""
}

func testLogger() *log.Entry {
	logger, _ := test.NewNullLogger()
	return log.NewEntry(logger)
}

func TestSendInOrder(t *testing.T) {
	srv := newLineServer(t)

	tr := New(Config{Host: "127.0.0.1", Port: srv.port()}, testLogger())
	defer tr.Close()

	for i := range 10 {
		tr.Send("line " + strconv.Itoa(i))
	}

	for i := range 10 {
		assert.Equal(t, "line "+strconv.Itoa(i), srv.next(t))
	}
}

func TestPreamble(t *testing.T) {
	srv := newLineServer(t)

	preamble := "PUT /user/hosts/host/log/?realtime=1 HTTP/1.0\r\n\r\n"

	tr := New(Config{Host: "127.0.0.1", Port: srv.port(), Preamble: preamble}, testLogger())
	defer tr.Close()

	tr.Send("hello")

	// the scanner splits the preamble on its line breaks
	assert.Equal(t, "PUT /user/hosts/host/log/?realtime=1 HTTP/1.0", srv.next(t))
	assert.Empty(t, srv.next(t))
	assert.Equal(t, "hello", srv.next(t))
}

func TestHeartbeat(t *testing.T) {
	srv := newLineServer(t)

	tr := New(Config{Host: "127.0.0.1", Port: srv.port(), HeartbeatInterval: 20 * time.Millisecond}, testLogger())
	defer tr.Close()

	assert.Equal(t, types.HeartbeatToken, srv.next(t))
}

func TestSendNeverBlocks(t *testing.T) {
	tr := newTransport(Config{Host: "127.0.0.1", Port: 1, QueueSize: 3}, testLogger())

	for i := range 4 {
		tr.Send(strconv.Itoa(i))
	}

	assert.Equal(t, 3, tr.QueueLen())
	assert.Equal(t, []string{"1", "2", "3"}, drain(tr.queue))
}

// flakyConn accepts a fixed number of writes and then fails every write.
type flakyConn struct {
	net.Conn

	mu       sync.Mutex
	writes   []string
	failFrom int
}

func (c *flakyConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failFrom >= 0 && len(c.writes) >= c.failFrom {
		return 0, errors.New("connection reset by peer")
	}

	c.writes = append(c.writes, string(p))

	return len(p), nil
}

func (c *flakyConn) Close() error                     { return nil }
func (c *flakyConn) SetWriteDeadline(time.Time) error { return nil }

func (c *flakyConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.writes...)
}

func TestReconnectBackoffAndResend(t *testing.T) {
	const (
		total     = 10
		delivered = 4
		failures  = 6
	)

	tr := newTransport(Config{
		Host:     "collector.invalid",
		Port:     10000,
		MinDelay: time.Millisecond,
		MaxDelay: 8 * time.Millisecond,
	}, testLogger())

	first := &flakyConn{failFrom: delivered}
	second := &flakyConn{failFrom: -1}

	var (
		mu       sync.Mutex
		attempts int
		waits    []time.Duration
	)

	tr.dial = func(context.Context) (net.Conn, error) {
		mu.Lock()
		defer mu.Unlock()

		attempts++

		switch {
		case attempts == 1:
			return first, nil
		case attempts <= 1+failures:
			return nil, errors.New("connection refused")
		default:
			return second, nil
		}
	}
	tr.notify = func(_ error, wait time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		waits = append(waits, wait)
	}

	for i := range total {
		tr.Send("entry " + strconv.Itoa(i))
	}

	tr.start()
	defer tr.Close()

	require.Eventually(t, func() bool {
		return len(second.written()) >= total-delivered
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		8 * time.Millisecond,
		8 * time.Millisecond,
		8 * time.Millisecond,
	}, waits)
	mu.Unlock()

	var got []string
	for _, w := range append(first.written(), second.written()[:total-delivered]...) {
		got = append(got, strings.TrimSuffix(w, "\n"))
	}

	expected := make([]string, 0, total)
	for i := range total {
		expected = append(expected, "entry "+strconv.Itoa(i))
	}

	assert.Equal(t, expected, got)
}

func TestCloseWhileDisconnected(t *testing.T) {
	tr := newTransport(Config{Host: "127.0.0.1", Port: 1, MinDelay: time.Hour, MaxDelay: time.Hour}, testLogger())
	tr.dial = func(context.Context) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	tr.start()

	start := time.Now()

	tr.Close()
	assert.Less(t, time.Since(start), DefaultJoinTimeout)

	select {
	case <-tr.t.Dead():
	default:
		assert.Fail(t, "sender still running")
	}
}

func TestInvalidProxyIsDisabled(t *testing.T) {
	logger, hook := test.NewNullLogger()

	tr := newTransport(Config{
		Host:  "127.0.0.1",
		Port:  1,
		Proxy: ProxyConfig{Type: "CARRIER-PIGEON", Host: "127.0.0.1", Port: 3128},
	}, log.NewEntry(logger))

	assert.Nil(t, tr.proxy)
	cstest.RequireLogContains(t, hook, "invalid proxy type")
}

func TestPoolSharesTransports(t *testing.T) {
	srv := newLineServer(t)

	p := NewPool(testLogger())
	defer p.CloseAll()

	a := p.Get(Config{Host: "127.0.0.1", Port: srv.port()})
	b := p.Get(Config{Host: "127.0.0.1", Port: srv.port()})
	c := p.Get(Config{Host: "127.0.0.1", Port: srv.port(), Preamble: "hello\n"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, p.Len())

	p.CloseAll()
	assert.Zero(t, p.Len())
}

func TestResolveRandom(t *testing.T) {
	addr, err := resolveRandom(context.Background(), net.DefaultResolver, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", addr)
}

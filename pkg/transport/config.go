package transport

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultQueueSize         = 32000
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultMinDelay          = 1 * time.Second
	DefaultMaxDelay          = 10 * time.Second
	DefaultJoinTimeout       = 1500 * time.Millisecond
)

// Proxy types understood by ProxyConfig.
const (
	ProxyHTTP   = "HTTP"
	ProxySOCKS5 = "SOCKS5"
	ProxySOCKS4 = "SOCKS4"
)

var ErrInvalidProxy = errors.New("invalid proxy type, only HTTP, SOCKS5 and SOCKS4 are accepted")

// ProxyConfig routes the connection through a proxy. It is disabled unless
// all three fields are set.
type ProxyConfig struct {
	Type string `yaml:"type"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (p ProxyConfig) Enabled() bool {
	return p.Type != "" && p.Host != "" && p.Port != 0
}

func (p ProxyConfig) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p ProxyConfig) Validate() error {
	if !p.Enabled() {
		return nil
	}

	switch strings.ToUpper(p.Type) {
	case ProxyHTTP, ProxySOCKS5, ProxySOCKS4:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProxy, p.Type)
	}
}

// Config describes one destination.
type Config struct {
	Host string
	Port int
	TLS  bool
	// CAFile is a PEM trust bundle added to the system pool. Empty means
	// the system pool alone.
	CAFile string
	// Preamble is written once after every successful connect. It is used
	// by the per-file upload mode and empty otherwise.
	Preamble string
	// Debug logs every entry written to the connection.
	Debug bool
	Proxy ProxyConfig

	QueueSize         int
	HeartbeatInterval time.Duration
	ConnectTimeout    time.Duration
	MinDelay          time.Duration
	MaxDelay          time.Duration
	JoinTimeout       time.Duration
}

func (c Config) withDefaults() Config {
	c.QueueSize = cmp.Or(c.QueueSize, DefaultQueueSize)
	c.HeartbeatInterval = cmp.Or(c.HeartbeatInterval, DefaultHeartbeatInterval)
	c.ConnectTimeout = cmp.Or(c.ConnectTimeout, DefaultConnectTimeout)
	c.MinDelay = cmp.Or(c.MinDelay, DefaultMinDelay)
	c.MaxDelay = cmp.Or(c.MaxDelay, DefaultMaxDelay)
	c.JoinTimeout = cmp.Or(c.JoinTimeout, DefaultJoinTimeout)

	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}

	return c
}

// Destination is host:port, used in logs and metric labels.
func (c Config) Destination() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// key identifies transports that can be shared.
type key struct {
	host     string
	port     int
	tls      bool
	preamble string
}

func (c Config) key() key {
	return key{host: c.Host, port: c.Port, tls: c.TLS, preamble: c.Preamble}
}

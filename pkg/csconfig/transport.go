package csconfig

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	defPort    = 10000
	defTLSPort = 20000

	defUploadPort    = 80
	defTLSUploadPort = 443
)

type ProxyCfg struct {
	Type string `yaml:"type"` // HTTP, SOCKS5 or SOCKS4
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportCfg is the collector to send entries to.
type TransportCfg struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	TLS    bool   `yaml:"tls"`
	CAFile string `yaml:"ca_file"`
	// UploadPort is used by logs configured with a key.
	UploadPort int       `yaml:"upload_port"`
	Debug      bool      `yaml:"debug"`
	Proxy      *ProxyCfg `yaml:"proxy"`

	QueueSize         int           `yaml:"queue_size"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	MinDelay          time.Duration `yaml:"min_reconnect_delay"`
	MaxDelay          time.Duration `yaml:"max_reconnect_delay"`
}

func (c *TransportCfg) setDefaults() {
	if c.Port == 0 {
		c.Port = defPort
		if c.TLS {
			c.Port = defTLSPort
		}
	}

	if c.UploadPort == 0 {
		c.UploadPort = defUploadPort
		if c.TLS {
			c.UploadPort = defTLSUploadPort
		}
	}

	if c.Proxy == nil {
		c.Proxy = &ProxyCfg{}
	}
}

func (c *TransportCfg) validate() []error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("transport.port: %d is out of range", c.Port))
	}

	if c.CAFile != "" {
		if _, err := os.Stat(c.CAFile); err != nil {
			errs = append(errs, fmt.Errorf("transport.ca_file: %w", err))
		}
	}

	if c.QueueSize < 0 {
		errs = append(errs, errors.New("transport.queue_size must be positive"))
	}

	if c.MinDelay < 0 || c.MaxDelay < 0 {
		errs = append(errs, errors.New("transport reconnect delays must be positive"))
	}

	return errs
}

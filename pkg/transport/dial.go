package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

var ErrCertificate = errors.New("could not validate certificate")

type contextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// newProxyDialer returns nil when the proxy is disabled.
func newProxyDialer(cfg ProxyConfig, timeout time.Duration) (contextDialer, error) {
	if !cfg.Enabled() {
		return nil, nil //nolint:nilnil
	}

	forward := &net.Dialer{Timeout: timeout}

	switch strings.ToUpper(cfg.Type) {
	case ProxyHTTP:
		return &httpConnectDialer{proxyAddr: cfg.Address(), forward: forward}, nil
	case ProxySOCKS4:
		return &socks4Dialer{proxyAddr: cfg.Address(), forward: forward}, nil
	case ProxySOCKS5:
		d, err := proxy.SOCKS5("tcp", cfg.Address(), nil, forward)
		if err != nil {
			return nil, fmt.Errorf("while creating SOCKS5 dialer: %w", err)
		}

		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("SOCKS5 dialer does not support contexts")
		}

		return cd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, cfg.Type)
	}
}

// resolveRandom picks one of the addresses host resolves to, so that
// agents spread over every collector behind a round-robin name.
func resolveRandom(ctx context.Context, resolver *net.Resolver, host string) (string, error) {
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}

	if len(addrs) == 0 {
		return "", fmt.Errorf("no address found for %s", host)
	}

	return addrs[rand.IntN(len(addrs))].IP.String(), nil
}

func newTLSConfig(host string, caFile string) (*tls.Config, error) {
	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("unable to load system CA certificates: %w", err)
	}

	if caCertPool == nil {
		caCertPool = x509.NewCertPool()
	}

	if caFile != "" {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("while reading CA bundle: %w", err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificate found in %s", caFile)
		}
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// isCertificateError tells validation failures apart from network errors
// during the handshake.
func isCertificateError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		hostErr      x509.HostnameError
		authorityErr x509.UnknownAuthorityError
		invalidErr   x509.CertificateInvalidError
	)

	return errors.As(err, &verifyErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &invalidErr)
}

// bufferedConn returns bytes the proxy handshake read past the response
// before reading from the connection again.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

type httpConnectDialer struct {
	proxyAddr string
	forward   *net.Dialer
}

func (d *httpConnectDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.forward.DialContext(ctx, network, d.proxyAddr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}

	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("while sending CONNECT to proxy %s: %w", d.proxyAddr, err)
	}

	br := bufio.NewReader(conn)

	resp, err := http.ReadResponse(br, req)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("while reading CONNECT response from proxy %s: %w", d.proxyAddr, err)
	}

	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("proxy %s refused CONNECT to %s: %s", d.proxyAddr, addr, resp.Status)
	}

	_ = conn.SetDeadline(time.Time{})

	return &bufferedConn{Conn: conn, r: br}, nil
}

const (
	socks4Version = 4
	socks4Connect = 1
	socks4Granted = 90
)

type socks4Dialer struct {
	proxyAddr string
	forward   *net.Dialer
}

func (d *socks4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	// SOCKS4 carries an IPv4 address, the name is resolved here.
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}

	conn, err := d.forward.DialContext(ctx, network, d.proxyAddr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := make([]byte, 0, 9)
	req = append(req, socks4Version, socks4Connect)
	req = binary.BigEndian.AppendUint16(req, uint16(port))
	req = append(req, ips[0].To4()...)
	req = append(req, 0) // empty user id

	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("while sending SOCKS4 request to %s: %w", d.proxyAddr, err)
	}

	resp := make([]byte, 8)
	if _, err := io.ReadFull(conn, resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("while reading SOCKS4 reply from %s: %w", d.proxyAddr, err)
	}

	if resp[1] != socks4Granted {
		conn.Close()
		return nil, fmt.Errorf("SOCKS4 proxy %s rejected connection to %s (code %d)", d.proxyAddr, addr, resp[1])
	}

	_ = conn.SetDeadline(time.Time{})

	return conn, nil
}

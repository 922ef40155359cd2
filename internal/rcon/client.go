package rcon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leighmacdonald/rcon/rcon"
)

const (
	DefaultRetries = 3
	DefaultTimeout = 3 * time.Second
)

// ErrAuthentication means the server rejected the RCON password. It is
// never retried.
var ErrAuthentication = errors.New("rcon authentication rejected")

// TransportError is returned once every retry attempt has failed.
type TransportError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rcon %s unreachable after %d attempts: %v", e.Addr, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Conn is a single authenticated RCON connection.
type Conn interface {
	Exec(command string) (string, error)
	io.Closer
}

// DialFunc opens and authenticates a connection. Injected in tests.
type DialFunc func(ctx context.Context, addr, password string, timeout time.Duration) (Conn, error)

func dialSource(ctx context.Context, addr, password string, timeout time.Duration) (Conn, error) {
	conn, err := rcon.Dial(ctx, addr, password, timeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Client sends single commands over fresh connections. It holds no
// per-server state; serializing commands against one server is the
// caller's concern.
type Client struct {
	Retries int
	Timeout time.Duration

	dial DialFunc
}

func NewClient() *Client {
	return &Client{Retries: DefaultRetries, Timeout: DefaultTimeout, dial: dialSource}
}

// NewClientWithDial builds a client around a custom dialer.
func NewClientWithDial(dial DialFunc, retries int, timeout time.Duration) *Client {
	return &Client{Retries: retries, Timeout: timeout, dial: dial}
}

// Exec connects, authenticates, runs one command and returns the
// normalized response. Transport failures are retried up to c.Retries
// attempts in total; an authentication failure aborts immediately.
func (c *Client) Exec(ctx context.Context, addr, password, command string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.Retries; attempt++ {
		response, err := c.execOnce(ctx, addr, password, command)
		if err == nil {
			return stripAuditLine(response), nil
		}
		if errors.Is(err, rcon.ErrAuthFailed) {
			return "", fmt.Errorf("%w: %s", ErrAuthentication, addr)
		}
		lastErr = err
	}
	return "", &TransportError{Addr: addr, Attempts: c.Retries, Err: lastErr}
}

func (c *Client) execOnce(ctx context.Context, addr, password, command string) (string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	conn, err := c.dial(dialCtx, addr, password, c.Timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	return conn.Exec(command)
}

// stripAuditLine removes the trailing connection-audit line some servers
// append to every response.
func stripAuditLine(response string) string {
	lines := strings.Split(response, "\n")
	if len(lines) >= 1 && strings.Contains(lines[len(lines)-1], "rcon from") {
		return strings.Join(lines[:len(lines)-1], "\n")
	}
	return response
}

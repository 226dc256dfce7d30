package imapmail

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/mikey/mail-notify/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// silentListener accepts TCP connections and never speaks TLS, so a
// client without a deadline would block in the handshake forever.
func silentListener(t *testing.T) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				_, _ = io.Copy(io.Discard, c)
			}(conn)
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, portNum
}

func TestConnect_TimesOutOnSilentServer(t *testing.T) {
	host, port := silentListener(t)

	c := NewConnector(host, port, "user", "secret", "INBOX", 200*time.Millisecond, zap.NewNop())

	start := time.Now()
	sess, err := c.Connect(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, core.ErrConnection)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestConnect_HonoursCancelledContext(t *testing.T) {
	host, port := silentListener(t)

	c := NewConnector(host, port, "user", "secret", "INBOX", time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, err := c.Connect(ctx)
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, core.ErrConnection)
}

type recordingConn struct {
	net.Conn
	deadline time.Time
}

func (c *recordingConn) SetDeadline(t time.Time) error {
	c.deadline = t
	return c.Conn.SetDeadline(t)
}

func TestArmDeadline_UsesConfiguredTimeout(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	conn := &recordingConn{Conn: left}
	s := &session{conn: conn, timeout: 30 * time.Second, logger: zap.NewNop()}

	s.armDeadline(context.Background())
	assert.WithinDuration(t, time.Now().Add(30*time.Second), conn.deadline, time.Second)

	s.disarmDeadline()
	assert.True(t, conn.deadline.IsZero())
}

func TestArmDeadline_EarlierContextDeadlineWins(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	conn := &recordingConn{Conn: left}
	s := &session{conn: conn, timeout: time.Hour, logger: zap.NewNop()}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.armDeadline(ctx)
	assert.WithinDuration(t, time.Now().Add(time.Second), conn.deadline, 500*time.Millisecond)
}

func TestArmDeadline_ZeroTimeoutFallsBackToContext(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	conn := &recordingConn{Conn: left}
	s := &session{conn: conn, logger: zap.NewNop()}

	s.armDeadline(context.Background())
	assert.True(t, conn.deadline.IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.armDeadline(ctx)
	assert.WithinDuration(t, time.Now().Add(time.Second), conn.deadline, 500*time.Millisecond)
}

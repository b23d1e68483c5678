package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// boundConns dials connections that live no longer than a context: each
// one gets the context deadline and is closed when the context ends.
// FTP data connections are dialed through it too, so a stalled transfer
// is interrupted like a stalled command.
type boundConns struct {
	ctx context.Context

	mu    sync.Mutex
	conns []net.Conn
	stops []func() bool
}

func newBoundConns(ctx context.Context) *boundConns {
	return &boundConns{ctx: ctx}
}

// dial matches the signature of ftp.DialWithDialFunc
func (b *boundConns) dial(network, address string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(b.ctx, network, address)
	if err != nil {
		return nil, err
	}

	if deadline, ok := b.ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(b.ctx, func() { conn.Close() })

	b.mu.Lock()
	b.conns = append(b.conns, conn)
	b.stops = append(b.stops, stop)
	b.mu.Unlock()

	return conn, nil
}

// release detaches the connections from the context. It does not close them.
func (b *boundConns) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, stop := range b.stops {
		stop()
	}
	b.stops = nil
	b.conns = nil
}

// closeAll closes every connection dialed so far
func (b *boundConns) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, conn := range b.conns {
		conn.Close()
	}
}

// ioErr reports the context error when the context ended an I/O call,
// since the raw error is then only "use of closed network connection"
func ioErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

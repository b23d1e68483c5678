// Package transport opens short-lived sessions against the remote locations
// being watched and returns their raw directory listings.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/sdejongh/ftpwatch/pkg/listing"
	"github.com/sdejongh/ftpwatch/pkg/models"
)

// Credentials holds everything needed to reach a remote server
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string

	// SFTP only
	PrivateKey            []byte
	Passphrase            string
	KnownHostsFile        string
	InsecureIgnoreHostKey bool
}

// Address returns host:port, using defaultPort when none is set
func (c Credentials) Address(defaultPort int) string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Dialer opens sessions for one protocol
type Dialer interface {
	// Connect establishes an authenticated session
	Connect(ctx context.Context, creds Credentials) (Session, error)
}

// Session is a connected transport, scoped to a single poll cycle.
// Implementations are not safe for concurrent use.
type Session interface {
	// List returns the direct children of a folder
	List(ctx context.Context, path string) ([]listing.RawEntry, error)

	// Stat returns the entry for a single path
	Stat(ctx context.Context, path string) (listing.RawEntry, error)

	// Close releases the connection
	Close() error
}

// New returns the dialer for a protocol
func New(protocol models.Protocol) (Dialer, error) {
	switch protocol {
	case models.ProtocolFTP:
		return &FTP{}, nil
	case models.ProtocolSFTP:
		return &SFTP{}, nil
	case models.ProtocolLocal:
		return &Local{}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
}

// ConnectionError reports a failure to connect to, read from or disconnect
// from a remote server
type ConnectionError struct {
	Op      string // connect, list, stat or close
	Address string
	Path    string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s on %s: %v", e.Op, e.Path, e.Address, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

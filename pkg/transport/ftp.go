package transport

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jlaffaye/ftp"

	"github.com/sdejongh/ftpwatch/internal/platform"
	"github.com/sdejongh/ftpwatch/pkg/listing"
	"github.com/sdejongh/ftpwatch/pkg/models"
)

const defaultFTPPort = 21

// ErrRootStat is returned when an FTP session is asked to stat "/"
var ErrRootStat = errors.New("the root folder cannot be stat'ed over FTP")

// FTP dials plain FTP servers
type FTP struct{}

// Connect dials the server and logs in. Anonymous login is used when no
// username is set. Every connection of the session, control and data, is
// bound to ctx: its deadline applies to each command and cancelling ctx
// aborts whatever call is in flight.
func (d *FTP) Connect(ctx context.Context, creds Credentials) (Session, error) {
	addr := creds.Address(defaultFTPPort)

	conns := newBoundConns(ctx)
	conn, err := ftp.Dial(addr, ftp.DialWithDialFunc(conns.dial))
	if err != nil {
		conns.closeAll()
		conns.release()
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: ioErr(ctx, err)}
	}

	user, pass := creds.Username, creds.Password
	if user == "" {
		user, pass = "anonymous", "anonymous"
	}
	if err := conn.Login(user, pass); err != nil {
		conn.Quit()
		conns.release()
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: fmt.Errorf("login failed: %w", ioErr(ctx, err))}
	}

	return &ftpSession{conn: conn, conns: conns, addr: addr}, nil
}

type ftpSession struct {
	conn  *ftp.ServerConn
	conns *boundConns
	addr  string
}

// List returns the children of path, without the . and .. entries
func (s *ftpSession) List(ctx context.Context, path string) ([]listing.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "list", Address: s.addr, Path: path, Err: err}
	}

	entries, err := s.conn.List(path)
	if err != nil {
		return nil, &ConnectionError{Op: "list", Address: s.addr, Path: path, Err: ioErr(ctx, err)}
	}

	out := make([]listing.RawEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, fromFTPEntry(e))
	}
	return out, nil
}

// Stat lists the parent folder and picks the entry named like path.
// MLST support is too uneven across servers to rely on. The root folder
// has no parent listing and cannot be stat'ed.
func (s *ftpSession) Stat(ctx context.Context, path string) (listing.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: err}
	}
	if platform.NormalizeFolder(path) == "/" {
		return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: ErrRootStat}
	}

	entries, err := s.conn.List(platform.Dir(path))
	if err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: ioErr(ctx, err)}
	}

	name := platform.Base(path)
	for _, e := range entries {
		if e.Name == name {
			return fromFTPEntry(e), nil
		}
	}
	return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: os.ErrNotExist}
}

func (s *ftpSession) Close() error {
	defer s.conns.release()
	if err := s.conn.Quit(); err != nil {
		return &ConnectionError{Op: "close", Address: s.addr, Err: err}
	}
	return nil
}

func fromFTPEntry(e *ftp.Entry) listing.FTPEntry {
	return listing.FTPEntry{
		Name:   e.Name,
		Type:   ftpEntryType(e.Type),
		Size:   int64(e.Size),
		Date:   e.Time,
		Target: e.Target,
	}
}

func ftpEntryType(t ftp.EntryType) models.EntryType {
	switch t {
	case ftp.EntryTypeFolder:
		return models.TypeDirectory
	case ftp.EntryTypeLink:
		return models.TypeSymlink
	default:
		return models.TypeFile
	}
}

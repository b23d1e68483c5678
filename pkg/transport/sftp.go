package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sdejongh/ftpwatch/pkg/listing"
)

const defaultSFTPPort = 22

// SFTP dials SSH servers and opens an SFTP subsystem on them
type SFTP struct{}

// Connect dials the server, verifies its host key and authenticates with
// the private key and/or password from creds
func (d *SFTP) Connect(ctx context.Context, creds Credentials) (Session, error) {
	addr := creds.Address(defaultSFTPPort)

	config, err := sshClientConfig(creds)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: err}
	}

	// The handshake and the SFTP requests take no context; the bound
	// connection carries the deadline and is closed on cancellation
	conns := newBoundConns(ctx)
	conn, err := conns.dial("tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: err}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		conns.release()
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: ioErr(ctx, err)}
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		conns.release()
		return nil, &ConnectionError{Op: "connect", Address: addr, Err: fmt.Errorf("sftp subsystem: %w", ioErr(ctx, err))}
	}

	return &sftpSession{client: client, ssh: sshClient, conns: conns, addr: addr}, nil
}

func sshClientConfig(creds Credentials) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if len(creds.PrivateKey) > 0 {
		var signer ssh.Signer
		var err error
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(creds.PrivateKey, []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(creds.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if creds.Password != "" {
		auth = append(auth, ssh.Password(creds.Password))
	}

	if len(auth) == 0 {
		return nil, errors.New("no password or private key configured")
	}

	hostKey, err := hostKeyCallback(creds)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
	}, nil
}

func hostKeyCallback(creds Credentials) (ssh.HostKeyCallback, error) {
	if creds.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if creds.KnownHostsFile == "" {
		return nil, errors.New("known_hosts file is required unless host key checking is disabled")
	}

	callback, err := knownhosts.New(creds.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}
	return callback, nil
}

type sftpSession struct {
	client *sftp.Client
	ssh    *ssh.Client
	conns  *boundConns
	addr   string
}

func (s *sftpSession) List(ctx context.Context, path string) ([]listing.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "list", Address: s.addr, Path: path, Err: err}
	}

	infos, err := s.client.ReadDir(path)
	if err != nil {
		return nil, &ConnectionError{Op: "list", Address: s.addr, Path: path, Err: ioErr(ctx, err)}
	}

	out := make([]listing.RawEntry, 0, len(infos))
	for _, info := range infos {
		out = append(out, fromFileInfo(info))
	}
	return out, nil
}

// Stat does not follow symlinks so a watched link reports its own times
func (s *sftpSession) Stat(ctx context.Context, path string) (listing.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: err}
	}

	info, err := s.client.Lstat(path)
	if err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.addr, Path: path, Err: ioErr(ctx, err)}
	}
	return fromFileInfo(info), nil
}

func (s *sftpSession) Close() error {
	defer s.conns.release()
	err := s.client.Close()
	if sshErr := s.ssh.Close(); err == nil {
		err = sshErr
	}
	if err != nil {
		return &ConnectionError{Op: "close", Address: s.addr, Err: err}
	}
	return nil
}

// fromFileInfo converts an SFTP attribute record. The wire format carries
// times in whole seconds; the entry uses epoch milliseconds.
func fromFileInfo(info os.FileInfo) listing.SFTPEntry {
	entry := listing.SFTPEntry{
		Name:       info.Name(),
		Type:       listing.TypeFromMode(info.Mode()),
		Size:       info.Size(),
		ModifyTime: info.ModTime().UnixMilli(),
		Rights:     listing.RightsFromMode(info.Mode()),
	}

	if stat, ok := info.Sys().(*sftp.FileStat); ok {
		entry.ModifyTime = int64(stat.Mtime) * 1000
		entry.AccessTime = int64(stat.Atime) * 1000
		entry.Owner = strconv.FormatUint(uint64(stat.UID), 10)
		entry.Group = strconv.FormatUint(uint64(stat.GID), 10)
	}

	return entry
}

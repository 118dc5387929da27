// Package backup copies the data files to a remote host over SFTP.
package backup

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"github.com/talkincode/toughpos/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 15 * time.Second

type Uploader struct {
	cfg   config.BackupConfig
	files []string
	now   func() time.Time
}

// New prepares an uploader for the given local files
func New(cfg config.BackupConfig, files ...string) *Uploader {
	return &Uploader{cfg: cfg, files: files, now: time.Now}
}

// Run connects to the configured server and uploads one snapshot
func (u *Uploader) Run(ctx context.Context) (string, error) {
	if u.cfg.KnownHostsFile == "" {
		return "", errors.New("backup.known_hosts_file is required")
	}
	hostKeys, err := knownhosts.New(u.cfg.KnownHostsFile)
	if err != nil {
		return "", errors.Wrap(err, "load known hosts")
	}
	sshCfg := &ssh.ClientConfig{
		User:            u.cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(u.cfg.Password)},
		HostKeyCallback: hostKeys,
		Timeout:         dialTimeout,
	}

	var d net.Dialer
	rawConn, err := d.DialContext(ctx, "tcp", u.cfg.Addr)
	if err != nil {
		return "", errors.Wrapf(err, "dial %s", u.cfg.Addr)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(rawConn, u.cfg.Addr, sshCfg)
	if err != nil {
		_ = rawConn.Close()
		return "", errors.Wrapf(err, "ssh handshake %s", u.cfg.Addr)
	}
	conn := ssh.NewClient(sshConn, chans, reqs)
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return "", errors.Wrap(err, "start sftp session")
	}
	defer client.Close()
	return u.Upload(client)
}

// Upload writes every file into <remote_dir>/<timestamp>/ and returns that directory.
// Files that do not exist yet are skipped.
func (u *Uploader) Upload(client *sftp.Client) (string, error) {
	dir := path.Join(u.cfg.RemoteDir, u.now().Format("20060102-150405"))
	if err := client.MkdirAll(dir); err != nil {
		return "", errors.Wrapf(err, "create remote dir %s", dir)
	}
	for _, local := range u.files {
		n, err := uploadFile(client, local, path.Join(dir, filepath.Base(local)))
		if os.IsNotExist(errors.Cause(err)) {
			zap.L().Warn("backup skipped missing file", zap.String("file", local))
			continue
		}
		if err != nil {
			return "", err
		}
		zap.L().Info("backup uploaded",
			zap.String("file", local), zap.String("remote", dir), zap.Int64("bytes", n))
	}
	return dir, nil
}

func uploadFile(client *sftp.Client, local, remote string) (int64, error) {
	src, err := os.Open(local)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer src.Close()

	dst, err := client.Create(remote)
	if err != nil {
		return 0, errors.Wrapf(err, "create remote file %s", remote)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()
		return 0, errors.Wrapf(err, "upload %s", local)
	}
	return n, errors.Wrapf(dst.Close(), "close remote file %s", remote)
}

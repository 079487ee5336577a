package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type SFTPPublisherInput struct {
	User           string
	Host           string
	Port           int
	KeyFile        string // private key, used when set
	Password       string
	KnownHostsFile string // host keys are not verified when empty
	RemoteDir      string
}

type sftpPublisher struct {
	input *SFTPPublisherInput
	auths []ssh.AuthMethod
}

func NewSFTPPublisher(input *SFTPPublisherInput) (Publisher, error) {
	if input.Host == "" {
		return nil, errors.New("sftp host is required")
	}
	if input.User == "" {
		return nil, errors.New("sftp user is required")
	}
	if input.Port == 0 {
		input.Port = 22
	}
	if input.RemoteDir == "" {
		input.RemoteDir = "."
	}

	var auths []ssh.AuthMethod
	if input.KeyFile != "" {
		buf, err := os.ReadFile(input.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading ssh key failed: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(buf)
		if err != nil {
			return nil, fmt.Errorf("parsing ssh key failed: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if input.Password != "" {
		auths = append(auths, ssh.Password(input.Password))
	}
	if len(auths) == 0 {
		return nil, errors.New("sftp needs a key file or a password")
	}
	return &sftpPublisher{input: input, auths: auths}, nil
}

func (t *sftpPublisher) client(ctx context.Context) (*ssh.Client, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if t.input.KnownHostsFile != "" {
		cb, err := knownhosts.New(t.input.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts failed: %w", err)
		}
		hostKeyCallback = cb
	} else {
		slog.Warn("SFTPPublisher: not verifying host key", slog.String("host", t.input.Host))
	}
	cfg := &ssh.ClientConfig{
		User:            t.input.User,
		Auth:            t.auths,
		HostKeyCallback: hostKeyCallback,
	}

	addr := net.JoinHostPort(t.input.Host, strconv.Itoa(t.input.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func (t *sftpPublisher) Publish(ctx context.Context, dir string) error {
	files, err := listFiles(dir)
	if err != nil {
		return err
	}

	client, err := t.client(ctx)
	if err != nil {
		return fmt.Errorf("connecting to %s failed: %w", t.input.Host, err)
	}
	defer client.Close()

	sftp, err := sftp.NewClient(client)
	if err != nil {
		return err
	}
	defer sftp.Close()

	slog.Info("SFTPPublisher: uploading results", slog.String("host", t.input.Host), slog.String("dir", t.input.RemoteDir))
	return uploadFiles(ctx, sftp, files, t.input.RemoteDir)
}

func uploadFiles(ctx context.Context, client *sftp.Client, files []localFile, remoteDir string) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := copyFileTo(client, f.Path, path.Join(remoteDir, f.Rel))
		if err != nil {
			return fmt.Errorf("uploading %s failed: %w", f.Rel, err)
		}
		slog.Debug("SFTPPublisher: uploaded", slog.String("file", f.Rel))
	}
	return nil
}

// copyFileTo copies the local file to the remote, creating the remote path if it does not exist.
func copyFileTo(client *sftp.Client, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	err = client.MkdirAll(path.Dir(remotePath))
	if err != nil {
		return err
	}

	dst, err := client.Create(remotePath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = dst.ReadFrom(src)
	return err
}

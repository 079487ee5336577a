package publish

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResults(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.json"), []byte(`[]`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graphs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphs", "Time.png"), []byte("png"), 0o644))
	return dir
}

func TestListFiles(t *testing.T) {
	files, err := listFiles(writeResults(t))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "graphs/Time.png", files[0].Rel)
	assert.Equal(t, int64(3), files[0].Size)
	assert.Equal(t, "report.json", files[1].Rel)

	_, err = listFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "runs/1/graphs/Time.png", objectKey("runs/1/", "graphs/Time.png"))
	prefix := defaultPrefix(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	assert.Regexp(t, `^editor-benchmark/20240501-123000-[a-z]{6}$`, prefix)
}

func TestNewSFTPPublisherValidation(t *testing.T) {
	_, err := NewSFTPPublisher(&SFTPPublisherInput{User: "bench"})
	assert.Error(t, err)
	_, err = NewSFTPPublisher(&SFTPPublisherInput{Host: "example.com", User: "bench"})
	assert.ErrorContains(t, err, "key file or a password")

	p, err := NewSFTPPublisher(&SFTPPublisherInput{Host: "example.com", User: "bench", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 22, p.(*sftpPublisher).input.Port)
}

func TestUploadFilesToInMemoryServer(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go server.Serve()
	defer server.Close()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)
	defer client.Close()

	files, err := listFiles(writeResults(t))
	require.NoError(t, err)
	require.NoError(t, uploadFiles(context.Background(), client, files, "/upload/run1"))

	f, err := client.Open("/upload/run1/graphs/Time.png")
	require.NoError(t, err)
	defer f.Close()
	buf, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png", string(buf))
}

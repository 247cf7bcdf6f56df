package sshexec

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"

	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// uploadChunkSize bounds a single Write call to the remote file. The SFTP
// protocol (and some jailbroken-device sftp-server implementations) may
// accept fewer bytes than offered in a single write; callers must loop
// until the whole chunk lands, and Upload loops across chunks as well.
const uploadChunkSize = 32 * 1024

// Upload copies localPath to remotePath over SFTP, overwriting any existing
// content, and sets remote file mode 0755. Short writes are looped until
// the full payload is confirmed written — a single Write call is never
// assumed complete.
func (c *Client) Upload(localPath, remotePath string) error {
	local, err := os.Open(localPath)
	if err != nil {
		return dbgerr.New(dbgerr.Sync, "sshexec.upload", fmt.Errorf("open local %s: %w", localPath, err))
	}
	defer local.Close()

	sftpClient, err := sftp.NewClient(c.conn)
	if err != nil {
		return dbgerr.New(dbgerr.Sync, "sshexec.upload", fmt.Errorf("new sftp client: %w", err))
	}
	defer sftpClient.Close()

	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return dbgerr.New(dbgerr.Sync, "sshexec.upload", fmt.Errorf("create remote %s: %w", remotePath, err))
	}
	defer remote.Close()

	if err := copyLooping(remote, local); err != nil {
		return dbgerr.New(dbgerr.Sync, "sshexec.upload", fmt.Errorf("write %s: %w", remotePath, err))
	}

	if err := sftpClient.Chmod(remotePath, 0755); err != nil {
		return dbgerr.New(dbgerr.Sync, "sshexec.upload", fmt.Errorf("chmod %s: %w", remotePath, err))
	}

	return nil
}

// copyLooping reads chunks from src and writes each one to dst, looping on
// short writes within a chunk rather than assuming one Write call drains it.
func copyLooping(dst io.Writer, src io.Reader) error {
	buf := make([]byte, uploadChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := writeAll(dst, buf[:n]); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// writeAll loops Write calls until all of data has landed.
func writeAll(dst io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := dst.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

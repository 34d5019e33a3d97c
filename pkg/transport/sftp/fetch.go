// Package sftp fetches a converter plug-in bundle (a manifest plus its WASM
// module or subprocess binary) named by an sftp:// URL from a remote host
// into a local directory, from where it can be handed to a
// pkg/plugin.Loader. Plug-in discovery reads local paths only: it does not
// resolve sftp:// entries in $PLUGIN_PATH and does not call Fetch.
// Grounded on the teacher's pkg/transports/ssh (file_transfer.go's
// *sftp.Client usage over an *ssh.Client, config.go's AuthMethod switch for
// building an ssh.ClientConfig).
package sftp

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// AuthMethod selects how Fetch authenticates to the remote host, mirroring
// the teacher's three-way ssh.AuthMethod switch.
type AuthMethod string

const (
	AuthPassword AuthMethod = "password"
	AuthKey      AuthMethod = "key"
	AuthAgent    AuthMethod = "agent"
)

// Config describes how to reach and authenticate against the host an
// sftp:// plug-in URL names.
type Config struct {
	AuthMethod     AuthMethod
	Password       string
	PrivateKeyPath string
	HostKeyCheck   func(hostname string, remote string, key ssh.PublicKey) error
}

func (c *Config) clientConfig(user string) (*ssh.ClientConfig, error) {
	var auths []ssh.AuthMethod
	switch c.AuthMethod {
	case AuthPassword:
		auths = append(auths, ssh.Password(c.Password))
	case AuthKey:
		key, err := os.ReadFile(c.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sftp: read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("sftp: parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	case AuthAgent:
		return nil, fmt.Errorf("sftp: agent auth requires a caller-supplied ssh.AuthMethod")
	default:
		return nil, fmt.Errorf("sftp: unsupported auth method %q", c.AuthMethod)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if c.HostKeyCheck != nil {
		check := c.HostKeyCheck
		hostKeyCallback = func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return check(hostname, remote.String(), key)
		}
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

// Fetch downloads a plugin bundle directory named by an sftp:// URL
// (sftp://user@host:port/remote/dir) into destDir, preserving the
// directory's file names so the manifest's relative entrypoint reference
// still resolves locally. Returns the local path of the manifest file,
// named manifestName, found at the remote directory's top level.
func Fetch(cfg *Config, rawURL, destDir, manifestName string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "sftp" {
		return "", fmt.Errorf("sftp: invalid sftp:// url %q", rawURL)
	}

	port := u.Port()
	if port == "" {
		port = "22"
	}
	addr := u.Hostname() + ":" + port
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("sftp: invalid port in %q", rawURL)
	}

	user := "root"
	if u.User != nil {
		user = u.User.Username()
	}

	clientCfg, err := cfg.clientConfig(user)
	if err != nil {
		return "", err
	}

	conn, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return "", fmt.Errorf("sftp: dial %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return "", fmt.Errorf("sftp: new client: %w", err)
	}
	defer client.Close()

	remoteDir := u.Path
	entries, err := client.ReadDir(remoteDir)
	if err != nil {
		return "", fmt.Errorf("sftp: read remote dir %s: %w", remoteDir, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("sftp: create local dest dir: %w", err)
	}

	var manifestPath string
	for _, entry := range entries {
		if entry.IsDir() {
			continue // bundles are expected flat: manifest + one entrypoint file
		}
		remotePath := filepath.Join(remoteDir, entry.Name())
		localPath := filepath.Join(destDir, entry.Name())
		if err := downloadFile(client, remotePath, localPath, entry.Mode().Perm()); err != nil {
			return "", err
		}
		if entry.Name() == manifestName {
			manifestPath = localPath
		}
	}

	if manifestPath == "" {
		return "", fmt.Errorf("sftp: remote dir %s has no %s", remoteDir, manifestName)
	}
	return manifestPath, nil
}

func downloadFile(client *sftp.Client, remotePath, localPath string, mode os.FileMode) error {
	remote, err := client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: open remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	local, err := os.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("sftp: create local file %s: %w", localPath, err)
	}
	defer local.Close()

	if _, err := io.Copy(local, remote); err != nil {
		return fmt.Errorf("sftp: copy %s: %w", remotePath, err)
	}
	return nil
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig locates a remote host and the credentials used to reach it.
type SSHConfig struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

// SSHProcess runs the peer command on a remote host and speaks to it over
// the session's stdin and stdout.
type SSHProcess struct {
	*Stream
	client  *ssh.Client
	session *ssh.Session
}

// DialSSH connects to cfg's host and starts cmd there.
func DialSSH(ctx context.Context, cfg SSHConfig, cmd string, args ...string) (*SSHProcess, error) {
	client, err := cfg.dial(ctx)
	if err != nil {
		return nil, err
	}
	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, err
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	session.Stderr = os.Stderr

	if err := session.Start(joinCommand(cmd, args)); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: ssh start %s: %w", cmd, err)
	}
	return &SSHProcess{
		Stream:  NewStream(stdout, stdin),
		client:  client,
		session: session,
	}, nil
}

// Close closes the remote stdin, waits for the command and tears down the
// connection.
func (p *SSHProcess) Close() error {
	closeErr := p.Stream.Close()
	waitErr := p.session.Wait()
	_ = p.session.Close()
	clientErr := p.client.Close()

	var exitErr *ssh.ExitMissingError
	if errors.As(waitErr, &exitErr) {
		waitErr = nil
	}
	return errors.Join(waitErr, closeErr, clientErr)
}

func (c SSHConfig) dial(ctx context.Context) (*ssh.Client, error) {
	address, err := c.address()
	if err != nil {
		return nil, err
	}
	config, err := c.clientConfig()
	if err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (c SSHConfig) address() (string, error) {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return "", fmt.Errorf("ssh host is required")
	}
	if c.Port != "" {
		return net.JoinHostPort(host, c.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, "22"), nil
}

func (c SSHConfig) clientConfig() (*ssh.ClientConfig, error) {
	if c.User == "" {
		return nil, fmt.Errorf("ssh user is required")
	}

	signer, err := c.signer()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := c.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.Timeout,
	}, nil
}

func (c SSHConfig) signer() (ssh.Signer, error) {
	if c.KeyPath == "" {
		return nil, fmt.Errorf("ssh key path is required")
	}
	privateKey, err := os.ReadFile(c.KeyPath)
	if err != nil {
		return nil, err
	}
	if len(c.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, c.Passphrase)
	}
	return ssh.ParsePrivateKey(privateKey)
}

func (c SSHConfig) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(c.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known hosts path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}

func joinCommand(cmd string, args []string) string {
	if len(args) == 0 {
		return shellEscape(cmd)
	}
	var builder strings.Builder
	builder.WriteString(shellEscape(cmd))
	for _, arg := range args {
		builder.WriteByte(' ')
		builder.WriteString(shellEscape(arg))
	}
	return builder.String()
}

func shellEscape(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: Client side of the persistent worker protocol. Drives one worker
session over any newline-delimited bidirectional channel: a spawned worker
subprocess on its stdio pipes, or an in-process session over io.Pipe for tests
and single-process deployments. One client serves one in-flight request at a
time; the owning pool enforces exclusive assignment.
*/

package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrRestartNeeded signals that the session hit its request ceiling and
// retired; the owning pool must replace the worker before reuse.
var ErrRestartNeeded = errors.New("worker session needs restart")

// Client drives one worker session over a command channel
type Client struct {
	in     *bufio.Scanner
	out    io.Writer
	closer io.Closer
	cmd    *exec.Cmd
	logger *logrus.Logger

	mu      sync.Mutex
	retired bool

	// closeMu guards transport teardown independently of mu, so Abort can
	// tear down a channel whose in-flight request still holds mu.
	closeMu sync.Mutex
}

// NewProcessClient spawns a worker subprocess and attaches to its stdio
// The binary is expected to speak the worker protocol on stdin/stdout
// (normally "statscope worker"). Blocks until the READY line arrives.
func NewProcessClient(logger *logrus.Logger, binary string, args ...string) (*Client, error) {
	cmd := exec.Command(binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker process: %w", err)
	}

	c := newClient(logger, stdout, stdin, stdin)
	c.cmd = cmd
	if err := c.awaitReady(); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	logger.WithFields(logrus.Fields{"pid": cmd.Process.Pid}).Debug("Worker process ready")
	return c, nil
}

// NewPipeClient runs a session in-process and attaches over io.Pipe
// The session goroutine exits when the client side closes or the session
// retires; useful for tests and single-process scan/parse runs.
func NewPipeClient(logger *logrus.Logger, session *Session) (*Client, error) {
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	go func() {
		err := session.Run(reqR, respW)
		if err != nil {
			logger.WithFields(logrus.Fields{"error": err}).Error("In-process worker session failed")
		}
		respW.Close()
		reqR.Close()
	}()

	// Closing both ends unblocks a reader stuck mid-request, not just the
	// session's command loop.
	c := newClient(logger, respR, reqW, pipeCloser{req: reqW, resp: respR})
	if err := c.awaitReady(); err != nil {
		return nil, err
	}
	return c, nil
}

// pipeCloser tears down both ends of an in-process pipe transport
type pipeCloser struct {
	req  *io.PipeWriter
	resp *io.PipeReader
}

func (p pipeCloser) Close() error {
	err := p.req.Close()
	if respErr := p.resp.Close(); err == nil {
		err = respErr
	}
	return err
}

// newClient wires a client around a response reader and request writer
func newClient(logger *logrus.Logger, r io.Reader, w io.Writer, closer io.Closer) *Client {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Client{in: in, out: w, closer: closer, logger: logger}
}

// awaitReady consumes the readiness sentinel emitted by a fresh session
func (c *Client) awaitReady() error {
	line, err := c.readLine()
	if err != nil {
		return fmt.Errorf("worker never became ready: %w", err)
	}
	if line != RespReady {
		return fmt.Errorf("unexpected readiness line from worker: %q", line)
	}
	return nil
}

// Retired reports whether the session signaled RESTART_NEEDED
func (c *Client) Retired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retired
}

// Parse runs one extraction request and returns the extracted records
// An ERROR response becomes a per-request error; records emitted before a
// truncation error are returned alongside it. RESTART_NEEDED maps to
// ErrRestartNeeded and marks the client retired.
func (c *Client) Parse(file string, filters []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return nil, ErrRestartNeeded
	}
	if err := c.send(FormatRequestLine(file, filters)); err != nil {
		return nil, err
	}

	var records []string
	var reqErr error
	for {
		line, err := c.readLine()
		if err != nil {
			return records, err
		}
		switch {
		case line == RespEndParse:
			return records, reqErr
		case line == RespRestartNeeded:
			c.retired = true
			return records, ErrRestartNeeded
		default:
			if reason, isErr := IsErrorLine(line); isErr {
				reqErr = fmt.Errorf("worker request failed: %s", reason)
				continue
			}
			records = append(records, line)
		}
	}
}

// Ping checks session liveness
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return ErrRestartNeeded
	}
	if err := c.send(CmdPing); err != nil {
		return err
	}
	line, err := c.readLine()
	if err != nil {
		return err
	}
	switch line {
	case RespPong:
		return nil
	case RespRestartNeeded:
		c.retired = true
		return ErrRestartNeeded
	default:
		return fmt.Errorf("unexpected ping response: %q", line)
	}
}

// Stats returns the session's served request count
func (c *Client) Stats() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retired {
		return 0, ErrRestartNeeded
	}
	if err := c.send(CmdStats); err != nil {
		return 0, err
	}

	count := -1
	for {
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		if line == RespEndStats {
			if count < 0 {
				return 0, fmt.Errorf("stats response carried no request count")
			}
			return count, nil
		}
		if n, ok := ParseRequestsLine(line); ok {
			count = n
		}
	}
}

// Shutdown asks the session to exit gracefully and closes the channel
func (c *Client) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.retired {
		if err := c.send(CmdShutdown); err == nil {
			// Best effort: wait for the acknowledgment, tolerate a
			// session that already went away.
			if line, err := c.readLine(); err == nil && line != RespGoodbye {
				c.logger.WithFields(logrus.Fields{"line": line}).Warn("Unexpected shutdown acknowledgment")
			}
		}
	}
	return c.close()
}

// Close tears the channel down without the protocol goodbye
// Waits for an in-flight request to finish first; use Abort to tear down
// under a request that never finishes.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

// Abort tears the channel down even with a request still blocked on it
// Kills a subprocess worker outright; closing the transport unblocks the
// stuck reader, which then returns a channel error to its caller.
func (c *Client) Abort() error {
	return c.teardown(true)
}

func (c *Client) close() error {
	return c.teardown(false)
}

func (c *Client) teardown(kill bool) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	var err error
	if c.closer != nil {
		err = c.closer.Close()
		c.closer = nil
	}
	if c.cmd != nil {
		if kill && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if waitErr := c.cmd.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
		c.cmd = nil
	}
	return err
}

// send writes one request line
func (c *Client) send(line string) error {
	if _, err := io.WriteString(c.out, line+"\n"); err != nil {
		return fmt.Errorf("failed to send worker command: %w", err)
	}
	return nil
}

// readLine reads one response line
func (c *Client) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read worker response: %w", err)
		}
		return "", fmt.Errorf("worker channel closed: %w", io.EOF)
	}
	return c.in.Text(), nil
}

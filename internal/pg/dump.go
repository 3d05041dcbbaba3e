package pg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
)

// StartDump launches a schema-only, no-owner pg_dump of the configured
// database (restricted to the configured schema when one is set) and
// returns its stdout as a stream. Close reaps the child process; a
// non-zero exit surfaces there, with whatever pg_dump wrote to stderr.
func (c *Client) StartDump(ctx context.Context) (io.ReadCloser, error) {
	args := []string{
		"--dbname=" + c.cfg.DSN(ApplicationName),
		"--schema-only",
		"--no-owner",
	}
	if c.cfg.Schema != "" {
		args = append(args, "--schema", c.cfg.Schema)
	}

	cmd := exec.CommandContext(ctx, "pg_dump", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping pg_dump stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting pg_dump: %w", err)
	}
	return &dumpStream{pipe: stdout, cmd: cmd, stderr: &stderr}, nil
}

// dumpStream ties the pg_dump process to its stdout pipe.
type dumpStream struct {
	pipe   io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (d *dumpStream) Read(p []byte) (int, error) {
	return d.pipe.Read(p)
}

// Close closes the pipe (unblocking pg_dump if the stream was abandoned
// early) and waits for the process on every exit path.
func (d *dumpStream) Close() error {
	d.pipe.Close()
	if err := d.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(d.stderr.String()); msg != "" {
			return fmt.Errorf("pg_dump: %w: %s", err, msg)
		}
		return fmt.Errorf("pg_dump: %w", err)
	}
	return nil
}

// FilterDump strips noise from a raw dump stream before segmentation: SQL
// comment lines, blank lines and session SET statements.
func FilterDump(r io.Reader) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if strings.HasPrefix(line, "--") || strings.HasPrefix(line, "SET") || strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := io.WriteString(pw, line+"\n"); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(sc.Err())
	}()
	return pr
}

var reDumpVersion = regexp.MustCompile(`[0-9]*\.?[0-9]+`)

// DumpVersion reports the version of the locally installed pg_dump tool.
func DumpVersion() (string, error) {
	out, err := exec.Command("pg_dump", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running pg_dump --version: %w", err)
	}
	return parseDumpVersion(string(out))
}

// parseDumpVersion extracts the numeric version from output such as
// "pg_dump (PostgreSQL) 16.4".
func parseDumpVersion(out string) (string, error) {
	v := reDumpVersion.FindString(strings.TrimSpace(out))
	if v == "" {
		return "", fmt.Errorf("unrecognized pg_dump version output %q", strings.TrimSpace(out))
	}
	return v, nil
}

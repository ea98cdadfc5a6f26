// Package credentials obtains a username and access token for a remote host
// by asking the local git credential helper.
package credentials

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCredentialsNotFound is returned when the helper output lacks a username or password.
var ErrCredentialsNotFound = errors.New("credential helper returned no username or password")

// Credentials is the pair returned by the helper.
type Credentials struct {
	Username    string
	AccessToken string
}

// Helper runs `<Command> credential fill`.
type Helper struct {
	Command string
}

// NewHelper returns a helper invoking the given git binary. An empty command means "git".
func NewHelper(command string) *Helper {
	if command == "" {
		command = "git"
	}
	return &Helper{Command: command}
}

// Get asks the credential helper for the credentials of protocol://host.
func (h *Helper) Get(ctx context.Context, protocol, host string) (Credentials, error) {
	input := fmt.Sprintf("protocol=%s\nhost=%s\n\n", protocol, host)

	cmd := exec.CommandContext(ctx, h.Command, "credential", "fill")
	cmd.Stdin = strings.NewReader(input)
	// Never let git fall back to prompting on a terminal.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Credentials{}, fmt.Errorf("error fetching credentials: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseOutput(stdout.Bytes())
}

// ParseOutput extracts username= and password= lines from helper output.
func ParseOutput(output []byte) (Credentials, error) {
	var creds Credentials
	var haveUser, havePass bool

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "username="):
			creds.Username = strings.TrimPrefix(line, "username=")
			haveUser = true
		case strings.HasPrefix(line, "password="):
			creds.AccessToken = strings.TrimPrefix(line, "password=")
			havePass = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, fmt.Errorf("failed to read credential helper output: %w", err)
	}

	if !haveUser || !havePass {
		return Credentials{}, ErrCredentialsNotFound
	}
	return creds, nil
}

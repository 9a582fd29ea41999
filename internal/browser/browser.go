// Package browser hands article URLs to the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

type Opener struct {
	command string
}

// NewOpener builds an Opener. When command is empty, a platform default
// is used.
func NewOpener(command string) *Opener {
	if command == "" {
		command = defaultCommand()
	}
	return &Opener{command: command}
}

// Open validates rawURL and launches the browser detached. Only http and
// https URLs are accepted; anything else could be interpreted by the
// opener as a local path or command.
func (o *Opener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if o.command == "" {
		return fmt.Errorf("no application found to open URL")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		// rundll32 avoids cmd /c start shell interpretation
		cmd = exec.Command(o.command, "url.dll,FileProtocolHandler", rawURL)
	} else {
		cmd = exec.Command(o.command, rawURL)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", o.command, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

func defaultCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "rundll32"
	default:
		return findCommand("xdg-open", "sensible-browser", "x-www-browser")
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

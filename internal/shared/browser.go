package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Overridable for platform-specific tests.
var getRuntime = func() string { return runtime.GOOS }

// launchCommands maps GOOS values to the command that opens a URL in the
// user's default browser.
var launchCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser opens the default system browser to the specified URL, used to
// start the Spotify authorization flow without the user copying a link.
func OpenBrowser(url string) error {
	rt := getRuntime()
	launcher, ok := launchCommands[rt]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	args := append(launcher[1:], url)
	if err := exec.Command(launcher[0], args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

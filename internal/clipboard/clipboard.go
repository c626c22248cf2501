// Package clipboard provides platform-specific clipboard operations.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// lookPath and run are swapped out in tests.
var (
	lookPath = exec.LookPath
	run      = func(name string, args []string, input string) error {
		cmd := exec.Command(name, args...)
		cmd.Stdin = strings.NewReader(input)
		return cmd.Run()
	}
)

// CopyText copies plain text to the system clipboard using whichever
// clipboard tool the platform provides.
func CopyText(text string) error {
	tools, err := textTools(runtime.GOOS)
	if err != nil {
		return err
	}

	var tried []string
	for _, tool := range tools {
		tried = append(tried, tool[0])
		if !isCommandAvailable(tool[0]) {
			continue
		}
		if err := run(tool[0], tool[1:], text); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no suitable clipboard tool found (tried: %s)", strings.Join(tried, ", "))
}

func textTools(goos string) ([][]string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return [][]string{
			{"wl-copy"},                          // Wayland
			{"xclip", "-selection", "clipboard"}, // X11
			{"xsel", "--clipboard", "--input"},   // X11 alternative
		}, nil
	case "darwin":
		return [][]string{{"pbcopy"}}, nil
	case "windows":
		return [][]string{{"clip"}}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func isCommandAvailable(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

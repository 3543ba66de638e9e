package player

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher opens media files or URLs in an external player
type Launcher struct {
	command string   // configured player command, empty for detection
	args    []string // additional arguments for the player
	goos    string
	exec    executor
	logger  *slog.Logger
}

// executor runs player commands; swapped out in tests
type executor interface {
	LookPath(file string) (string, error)
	// Start runs the command without waiting for it to exit
	Start(name string, args ...string) error
	// Run runs the command to completion, used where the exit status tells
	// whether the app exists (macOS "open -a")
	Run(name string, args ...string) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }
func (osExecutor) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}
func (osExecutor) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path      string   // Command path: "mpv", "vlc", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only - flags for macOS open command (e.g., ["-n"])
}

// players maps a player name to its launch paths per platform, tried in order
var players = map[string]map[string][]launchPath{
	"mpv": {
		"darwin":  {{path: "mpv"}},
		"linux":   {{path: "mpv"}},
		"windows": {{path: "mpv"}},
	},
	"vlc": {
		"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
		"linux":   {{path: "vlc"}},
		"windows": {{path: "vlc"}},
	},
	"iina": {
		"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}}, // IINA needs -n for new windows
	},
	"celluloid": {
		"linux": {{path: "celluloid"}},
	},
	"potplayer": {
		"windows": {{path: "PotPlayerMini64.exe"}, {path: "PotPlayerMini.exe"}},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv", "potplayer"},
}

// NewLauncher creates a Launcher. An empty command means detect an installed player.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		goos:    runtime.GOOS,
		exec:    osExecutor{},
		logger:  logger,
	}
}

// Launch opens target (a local path or an http(s) URL) and returns the name
// of the player used.
func (l *Launcher) Launch(target string) (string, error) {
	// Tier 1: User configured a specific player
	if l.command != "" {
		l.logger.Info("using configured player", "command", l.command)
		if err := l.launchConfigured(target); err != nil {
			return "", fmt.Errorf("failed to launch %s: %w", l.command, err)
		}
		return l.command, nil
	}

	// Tier 2: Try candidate chain (IINA → VLC → mpv on macOS, etc.)
	if name, err := l.detectAndLaunch(target); err == nil {
		return name, nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	l.logger.Info("no candidate players found, using system default")
	if err := l.launchDefault(target); err != nil {
		return "", fmt.Errorf("failed to open with system default: %w", err)
	}
	return "default", nil
}

// detectAndLaunch tries candidate players in order using their launch paths
func (l *Launcher) detectAndLaunch(target string) (string, error) {
	candidates, ok := candidatePlayers[l.goos]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		paths, ok := players[name][l.goos]
		if !ok {
			l.logger.Debug("player not available on this platform", "player", name, "platform", l.goos)
			continue
		}

		for _, lp := range paths {
			var err error
			if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
				err = l.exec.Run("open", openArgs(app, lp.openFlags, l.args, target)...)
			} else if _, err = l.exec.LookPath(lp.path); err == nil {
				err = l.exec.Start(lp.path, append(append([]string{}, l.args...), target)...)
			}

			if err == nil {
				l.logger.Info("launched with detected player", "player", name, "path", lp.path)
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}

	return "", fmt.Errorf("no candidate players found")
}

// launchConfigured launches the target using the configured player
func (l *Launcher) launchConfigured(target string) error {
	// On macOS, GUI apps outside PATH are launched with 'open -a'
	if l.goos == "darwin" {
		if _, err := l.exec.LookPath(l.command); err != nil {
			var openFlags []string
			base := strings.ToLower(filepath.Base(l.command))
			base = strings.TrimSuffix(base, filepath.Ext(base))
			for _, lp := range players[base]["darwin"] {
				if strings.HasPrefix(lp.path, "open-a:") {
					openFlags = lp.openFlags
					break
				}
			}
			args := openArgs(l.command, openFlags, l.args, target)
			l.logger.Info("using macOS 'open -a' to launch GUI app", "app", l.command, "args", args)
			return l.exec.Start("open", args...)
		}
	}

	args := append(append([]string{}, l.args...), target)
	l.logger.Info("launching player", "command", l.command, "args", args)
	return l.exec.Start(l.command, args...)
}

// launchDefault opens the target using the system default handler
func (l *Launcher) launchDefault(target string) error {
	l.logger.Info("launching with system default", "os", l.goos, "target", target)

	switch l.goos {
	case "darwin":
		return l.exec.Start("open", target)
	case "windows":
		return l.exec.Start("cmd", "/c", "start", "", target)
	default:
		return l.exec.Start("xdg-open", target)
	}
}

// openArgs builds arguments for macOS "open": flags, -a app, --args player args, target
func openArgs(app string, openFlags, playerArgs []string, target string) []string {
	args := append([]string{}, openFlags...)
	args = append(args, "-a", app)
	if len(playerArgs) > 0 {
		args = append(args, "--args")
		args = append(args, playerArgs...)
	}
	return append(args, target)
}

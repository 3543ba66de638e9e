package player

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	mode string // "start" or "run"
	name string
	args []string
}

type fakeExecutor struct {
	installed map[string]bool
	failRun   map[string]bool // "open -a <App>" that fail
	failStart bool
	calls     []call
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.installed[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found")
}

func (f *fakeExecutor) Start(name string, args ...string) error {
	f.calls = append(f.calls, call{"start", name, args})
	if f.failStart {
		return errors.New("exec failed")
	}
	return nil
}

func (f *fakeExecutor) Run(name string, args ...string) error {
	f.calls = append(f.calls, call{"run", name, args})
	if f.failRun[strings.Join(args, " ")] {
		return errors.New("app not found")
	}
	return nil
}

func newTestLauncher(goos, command string, args []string, fx *fakeExecutor) *Launcher {
	l := NewLauncher(command, args, nil)
	l.goos = goos
	l.exec = fx
	return l
}

func TestLaunchConfigured(t *testing.T) {
	fx := &fakeExecutor{installed: map[string]bool{"mpv": true}}
	l := newTestLauncher("linux", "mpv", []string{"--fs"}, fx)

	name, err := l.Launch("/mnt/media/a.mkv")
	require.NoError(t, err)
	assert.Equal(t, "mpv", name)
	assert.Equal(t, []call{{"start", "mpv", []string{"--fs", "/mnt/media/a.mkv"}}}, fx.calls)
}

func TestLaunchConfiguredFailure(t *testing.T) {
	fx := &fakeExecutor{failStart: true}
	l := newTestLauncher("linux", "mpv", nil, fx)

	_, err := l.Launch("/a.mkv")
	require.Error(t, err)
}

func TestLaunchConfiguredMacOSApp(t *testing.T) {
	fx := &fakeExecutor{}
	l := newTestLauncher("darwin", "IINA", []string{"--keep-running"}, fx)

	_, err := l.Launch("https://host/stream/1?X-Plex-Token=TOK")
	require.NoError(t, err)
	assert.Equal(t, []call{{"start", "open", []string{"-n", "-a", "IINA", "--args", "--keep-running", "https://host/stream/1?X-Plex-Token=TOK"}}}, fx.calls)
}

func TestLaunchDetectsCandidate(t *testing.T) {
	fx := &fakeExecutor{installed: map[string]bool{"vlc": true}}
	l := newTestLauncher("linux", "", nil, fx)

	name, err := l.Launch("/a.mkv")
	require.NoError(t, err)
	assert.Equal(t, "vlc", name)
	assert.Equal(t, []call{{"start", "vlc", []string{"/a.mkv"}}}, fx.calls)
}

func TestLaunchDetectsMacOSApp(t *testing.T) {
	fx := &fakeExecutor{failRun: map[string]bool{"-n -a IINA /a.mkv": true}}
	l := newTestLauncher("darwin", "", nil, fx)

	name, err := l.Launch("/a.mkv")
	require.NoError(t, err)
	assert.Equal(t, "vlc", name)
	assert.Equal(t, []call{
		{"run", "open", []string{"-n", "-a", "IINA", "/a.mkv"}},
		{"run", "open", []string{"-a", "VLC", "/a.mkv"}},
	}, fx.calls)
}

func TestLaunchFallsBackToSystemDefault(t *testing.T) {
	fx := &fakeExecutor{}
	l := newTestLauncher("linux", "", nil, fx)

	name, err := l.Launch("/a.mkv")
	require.NoError(t, err)
	assert.Equal(t, "default", name)
	assert.Equal(t, []call{{"start", "xdg-open", []string{"/a.mkv"}}}, fx.calls)

	fx = &fakeExecutor{}
	l = newTestLauncher("windows", "", nil, fx)
	_, err = l.Launch(`C:\media\a.mkv`)
	require.NoError(t, err)
	assert.Equal(t, []call{{"start", "cmd", []string{"/c", "start", "", `C:\media\a.mkv`}}}, fx.calls)
}

func TestLaunchSystemDefaultFailure(t *testing.T) {
	fx := &fakeExecutor{failStart: true}
	l := newTestLauncher("linux", "", nil, fx)

	_, err := l.Launch("/a.mkv")
	require.Error(t, err)
}

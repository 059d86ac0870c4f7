package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dexterlb/mpvipc"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
)

var errMPVClosed = errors.New("mpv connection closed")

// property observer ids
const (
	observePause = iota + 1
	observeEOF
)

// MPVOptions configures the mpv process
type MPVOptions struct {
	Path       string
	SocketPath string
	YTDLFormat string
	Video      bool
	ExtraArgs  []string
}

// MPV is an Engine backed by an mpv process in idle mode
type MPV struct {
	conn *mpvipc.Connection
	cmd  *exec.Cmd

	socketPath string
	events     chan Event
	stopEvents chan struct{}

	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	preloaded string
}

// NewMPV launches mpv and connects to its IPC socket
func NewMPV(ctx context.Context, opts MPVOptions) (*MPV, error) {
	path := opts.Path
	if path == "" {
		path = "mpv"
	}
	socket := opts.SocketPath
	if socket == "" {
		socket = filepath.Join(os.TempDir(), fmt.Sprintf("tubetone-mpv-%d.sock", os.Getpid()))
	}
	os.Remove(socket)

	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--input-ipc-server=" + socket,
		"--keep-open=always",
		"--prefetch-playlist=yes",
	}
	if opts.Video {
		args = append(args, "--vid=auto", "--force-window=yes")
	} else {
		args = append(args, "--vid=no", "--force-window=no")
	}
	if opts.YTDLFormat != "" {
		args = append(args, "--ytdl-format="+opts.YTDLFormat)
	}
	args = append(args, opts.ExtraArgs...)

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}
	logger.Debug("mpv started (pid %d), socket %s", cmd.Process.Pid, socket)

	m, err := dialMPV(ctx, socket)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}
	m.cmd = cmd
	m.socketPath = socket
	return m, nil
}

// dialMPV connects to an mpv IPC socket that is (or soon will be) listening
// and subscribes to the properties the engine reports on.
func dialMPV(ctx context.Context, socket string) (*MPV, error) {
	conn, err := openConnection(ctx, socket)
	if err != nil {
		return nil, err
	}

	events, stop := conn.NewEventListener()
	m := &MPV{
		conn:       conn,
		events:     make(chan Event, constants.EventQueueSize),
		stopEvents: stop,
		done:       make(chan struct{}),
	}
	go func() {
		conn.WaitUntilClosed()
		m.shutdown()
	}()

	ctx, cancel := context.WithTimeout(ctx, constants.MPVCommandTimeout)
	defer cancel()
	if _, err := m.call(ctx, "observe_property", observePause, "pause"); err != nil {
		m.shutdown()
		return nil, err
	}
	if _, err := m.call(ctx, "observe_property", observeEOF, "eof-reached"); err != nil {
		m.shutdown()
		return nil, err
	}

	go m.translate(events)
	m.emit(Event{Type: EventReady})
	return m, nil
}

func openConnection(ctx context.Context, socket string) (*mpvipc.Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.MPVStartupTimeout)
	defer cancel()

	for {
		conn := mpvipc.NewConnection(socket)
		err := conn.Open()
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mpv ipc socket %s not ready: %w", socket, err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (m *MPV) shutdown() {
	m.once.Do(func() {
		close(m.done)
		m.conn.Close()
		close(m.stopEvents)
	})
}

// translate turns mpv events into engine events
func (m *MPV) translate(events <-chan *mpvipc.Event) {
	defer close(m.events)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if out, ok := toEvent(ev); ok {
				m.emit(out)
			}
		case <-m.done:
			return
		}
	}
}

func toEvent(ev *mpvipc.Event) (Event, bool) {
	if ev == nil {
		return Event{}, false
	}
	switch ev.Name {
	case "property-change":
		on, ok := ev.Data.(bool)
		if !ok {
			return Event{}, false
		}
		switch ev.ID {
		case observePause:
			if on {
				return Event{Type: EventPaused}, true
			}
			return Event{Type: EventPlaying}, true
		case observeEOF:
			if on {
				return Event{Type: EventEnded}, true
			}
		}
	case "end-file":
		if ev.Reason == "error" {
			return Event{Type: EventError, Err: errors.New("mpv: failed to play file")}, true
		}
	}
	return Event{}, false
}

func (m *MPV) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// call runs one IPC command, giving up when ctx ends or the connection closes
func (m *MPV) call(ctx context.Context, args ...any) (any, error) {
	select {
	case <-m.done:
		return nil, errMPVClosed
	default:
	}

	type reply struct {
		data any
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		data, err := m.conn.Call(args...)
		ch <- reply{data, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("mpv %v: %w", args[0], r.err)
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, errMPVClosed
	}
}

func (m *MPV) do(args ...any) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.MPVCommandTimeout)
	defer cancel()
	return m.call(ctx, args...)
}

// Load replaces the current file. A URL that was preloaded is promoted from
// the playlist so the prefetched data is reused.
func (m *MPV) Load(ctx context.Context, url string) error {
	m.mu.Lock()
	preloaded := m.preloaded
	m.preloaded = ""
	m.mu.Unlock()

	if preloaded == url {
		if _, err := m.call(ctx, "playlist-next", "force"); err == nil {
			_, err = m.call(ctx, "playlist-clear")
			return err
		}
	}

	if _, err := m.call(ctx, "loadfile", url, "replace"); err != nil {
		return err
	}
	_, err := m.call(ctx, "playlist-clear")
	return err
}

// Preload appends url after the current file so mpv can prefetch it
func (m *MPV) Preload(ctx context.Context, url string) error {
	if _, err := m.call(ctx, "playlist-clear"); err != nil {
		return err
	}
	if _, err := m.call(ctx, "loadfile", url, "append"); err != nil {
		return err
	}
	m.mu.Lock()
	m.preloaded = url
	m.mu.Unlock()
	return nil
}

func (m *MPV) Play() error {
	_, err := m.do("set_property", "pause", false)
	return err
}

func (m *MPV) Pause() error {
	_, err := m.do("set_property", "pause", true)
	return err
}

func (m *MPV) Stop() error {
	m.mu.Lock()
	m.preloaded = ""
	m.mu.Unlock()
	_, err := m.do("stop")
	return err
}

func (m *MPV) Seek(position time.Duration) error {
	_, err := m.do("seek", position.Seconds(), "absolute")
	return err
}

func (m *MPV) SetVolume(v float64) error {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	_, err := m.do("set_property", "volume", v*100)
	return err
}

func (m *MPV) Position() (time.Duration, error) {
	return m.floatProperty("time-pos")
}

func (m *MPV) Duration() (time.Duration, error) {
	return m.floatProperty("duration")
}

// floatProperty reads a seconds property. Unavailable properties (nothing
// loaded yet) read as zero.
func (m *MPV) floatProperty(name string) (time.Duration, error) {
	data, err := m.do("get_property", name)
	if err != nil {
		if strings.Contains(err.Error(), "property unavailable") {
			return 0, nil
		}
		return 0, err
	}
	switch v := data.(type) {
	case nil:
		return 0, nil
	case float64:
		return secondsToDuration(v), nil
	default:
		return 0, fmt.Errorf("mpv %s: unexpected value %v", name, data)
	}
}

func (m *MPV) SetVideo(on bool) error {
	vid, window := "no", "no"
	if on {
		vid, window = "auto", "yes"
	}
	if _, err := m.do("set_property", "force-window", window); err != nil {
		return err
	}
	_, err := m.do("set_property", "vid", vid)
	return err
}

func (m *MPV) Events() <-chan Event {
	return m.events
}

// Close asks mpv to quit and reaps the process
func (m *MPV) Close() error {
	select {
	case <-m.done:
	default:
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if _, err := m.call(ctx, "quit"); err != nil && !errors.Is(err, errMPVClosed) {
			logger.Debug("mpv quit: %v", err)
		}
		cancel()
	}
	m.shutdown()

	if m.cmd != nil && m.cmd.Process != nil {
		waited := make(chan struct{})
		go func() {
			m.cmd.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-time.After(2 * time.Second):
			m.cmd.Process.Kill()
			<-waited
		}
		m.cmd = nil
	}
	if m.socketPath != "" {
		os.Remove(m.socketPath)
	}
	return nil
}

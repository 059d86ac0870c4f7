package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dexterlb/mpvipc"
)

type fakeRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// fakeMPV answers IPC commands on a unix socket the way mpv does
type fakeMPV struct {
	conn net.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	commands [][]any
	props    map[string]string
	fail     map[string]string
}

func newFakeMPV(t *testing.T) (*fakeMPV, *MPV) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	f := &fakeMPV{
		props: map[string]string{},
		fail:  map[string]string{},
	}
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
		f.serve(conn)
	}()

	m, err := dialMPV(context.Background(), socket)
	if err != nil {
		ln.Close()
		t.Fatalf("dialMPV: %v", err)
	}
	f.conn = <-accepted
	t.Cleanup(func() {
		m.Close()
		f.conn.Close()
		ln.Close()
	})

	if ev := nextEvent(t, m); ev.Type != EventReady {
		t.Fatalf("first event = %v, want ready", ev.Type)
	}
	return f, m
}

func (f *fakeMPV) serve(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var req fakeRequest
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil || len(req.Command) == 0 {
			continue
		}
		name := fmt.Sprint(req.Command[0])

		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		data := "null"
		errText := "success"
		if name == "get_property" {
			prop := fmt.Sprint(req.Command[1])
			if v, ok := f.props[prop]; ok {
				data = v
			} else {
				errText = "property unavailable"
			}
		}
		if e, ok := f.fail[name]; ok {
			errText = e
		}
		f.mu.Unlock()

		f.write(conn, fmt.Sprintf(`{"request_id":%d,"error":%q,"data":%s}`, req.RequestID, errText, data))
	}
}

func (f *fakeMPV) write(conn net.Conn, line string) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	conn.Write([]byte(line + "\n"))
}

func (f *fakeMPV) send(line string) {
	f.write(f.conn, line)
}

func (f *fakeMPV) sent() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.commands...)
}

func (f *fakeMPV) last(n int) []string {
	cmds := f.sent()
	if len(cmds) < n {
		n = len(cmds)
	}
	var out []string
	for _, c := range cmds[len(cmds)-n:] {
		out = append(out, fmt.Sprint(c...))
	}
	return out
}

func nextEvent(t *testing.T, m *MPV) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMPVObservesProperties(t *testing.T) {
	f, _ := newFakeMPV(t)
	cmds := f.sent()
	if len(cmds) < 2 {
		t.Fatalf("commands = %v", cmds)
	}
	if fmt.Sprint(cmds[0]...) != "observe_property1pause" || fmt.Sprint(cmds[1]...) != "observe_property2eof-reached" {
		t.Errorf("observe commands = %v", cmds[:2])
	}
}

func TestMPVLoadAndPreload(t *testing.T) {
	f, m := newFakeMPV(t)
	ctx := context.Background()

	if err := m.Load(ctx, "https://www.youtube.com/watch?v=aaaaaaaaaaa"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := f.last(2)
	if got[0] != "loadfilehttps://www.youtube.com/watch?v=aaaaaaaaaaareplace" || got[1] != "playlist-clear" {
		t.Fatalf("load commands = %v", got)
	}

	next := "https://www.youtube.com/watch?v=bbbbbbbbbbb"
	if err := m.Preload(ctx, next); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	got = f.last(2)
	if got[0] != "playlist-clear" || got[1] != "loadfile"+next+"append" {
		t.Fatalf("preload commands = %v", got)
	}

	if err := m.Load(ctx, next); err != nil {
		t.Fatalf("Load preloaded: %v", err)
	}
	got = f.last(2)
	if got[0] != "playlist-nextforce" || got[1] != "playlist-clear" {
		t.Fatalf("preloaded load commands = %v", got)
	}

	// preload is consumed
	if err := m.Load(ctx, next); err != nil {
		t.Fatal(err)
	}
	if got = f.last(2); got[0] != "loadfile"+next+"replace" {
		t.Fatalf("second load = %v", got)
	}
}

func TestMPVControls(t *testing.T) {
	f, m := newFakeMPV(t)

	steps := []struct {
		run  func() error
		want string
	}{
		{m.Play, "set_propertypausefalse"},
		{m.Pause, "set_propertypausetrue"},
		{func() error { return m.Seek(90 * time.Second) }, "seek90absolute"},
		{func() error { return m.SetVolume(0.5) }, "set_propertyvolume50"},
		{func() error { return m.SetVolume(3) }, "set_propertyvolume100"},
		{m.Stop, "stop"},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			t.Fatalf("%s: %v", s.want, err)
		}
		if got := f.last(1)[0]; got != s.want {
			t.Errorf("sent %q, want %q", got, s.want)
		}
	}

	if err := m.SetVideo(true); err != nil {
		t.Fatal(err)
	}
	if got := f.last(2); got[0] != "set_propertyforce-windowyes" || got[1] != "set_propertyvidauto" {
		t.Errorf("video on = %v", got)
	}
	if err := m.SetVideo(false); err != nil {
		t.Fatal(err)
	}
	if got := f.last(2); got[0] != "set_propertyforce-windowno" || got[1] != "set_propertyvidno" {
		t.Errorf("video off = %v", got)
	}
}

func TestMPVPositionAndDuration(t *testing.T) {
	f, m := newFakeMPV(t)

	pos, err := m.Position()
	if err != nil || pos != 0 {
		t.Fatalf("unavailable position = %v, %v", pos, err)
	}

	f.mu.Lock()
	f.props["time-pos"] = "12.5"
	f.props["duration"] = "200"
	f.mu.Unlock()

	if pos, err = m.Position(); err != nil || pos != 12500*time.Millisecond {
		t.Errorf("position = %v, %v", pos, err)
	}
	if d, err := m.Duration(); err != nil || d != 200*time.Second {
		t.Errorf("duration = %v, %v", d, err)
	}
}

func TestMPVCommandError(t *testing.T) {
	f, m := newFakeMPV(t)
	f.mu.Lock()
	f.fail["loadfile"] = "invalid parameter"
	f.mu.Unlock()

	if err := m.Load(context.Background(), "bad"); err == nil {
		t.Fatal("expected error from failing loadfile")
	}
}

func TestMPVEvents(t *testing.T) {
	f, m := newFakeMPV(t)

	f.send(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	if ev := nextEvent(t, m); ev.Type != EventPlaying {
		t.Errorf("got %v, want playing", ev.Type)
	}

	f.send(`{"event":"property-change","id":1,"name":"pause","data":true}`)
	if ev := nextEvent(t, m); ev.Type != EventPaused {
		t.Errorf("got %v, want paused", ev.Type)
	}

	// eof-reached false and a normal end-file are ignored
	f.send(`{"event":"property-change","id":2,"name":"eof-reached","data":false}`)
	f.send(`{"event":"end-file","reason":"stop"}`)
	f.send(`{"event":"property-change","id":2,"name":"eof-reached","data":true}`)
	if ev := nextEvent(t, m); ev.Type != EventEnded {
		t.Errorf("got %v, want ended", ev.Type)
	}

	f.send(`{"event":"end-file","reason":"error","file_error":"loading failed"}`)
	ev := nextEvent(t, m)
	if ev.Type != EventError || ev.Err == nil {
		t.Errorf("got %+v, want error", ev)
	}
}

func TestMPVCloseUnblocksCommands(t *testing.T) {
	_, m := newFakeMPV(t)
	m.Close()

	if err := m.Play(); err == nil {
		t.Fatal("command after Close should fail")
	}
	if _, ok := <-m.Events(); ok {
		// drain until closed
		for range m.Events() {
		}
	}
}

func TestToEventIgnoresUnknown(t *testing.T) {
	if _, ok := toEvent(nil); ok {
		t.Error("nil event translated")
	}
	if _, ok := toEvent(&mpvipc.Event{Name: "property-change", ID: 99, Data: true}); ok {
		t.Error("unobserved property translated")
	}
	if _, ok := toEvent(&mpvipc.Event{Name: "property-change", ID: observePause}); ok {
		t.Error("property without data translated")
	}
	if ev, ok := toEvent(&mpvipc.Event{Name: "end-file", Reason: "error"}); !ok || ev.Type != EventError {
		t.Errorf("end-file error = %+v, %v", ev, ok)
	}
}

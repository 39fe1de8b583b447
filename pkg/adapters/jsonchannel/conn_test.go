package jsonchannel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/user/mediactl/pkg/adapters/logger"
	"github.com/user/mediactl/pkg/mocks"
	"github.com/user/mediactl/pkg/player"
	"github.com/user/mediactl/pkg/ports"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// responses decodes every response line, keyed by id.
func (b *syncBuffer) responses(t *testing.T) map[int64]Response {
	t.Helper()
	out := map[int64]Response{}
	for _, line := range b.Lines() {
		if strings.Contains(line, `"event"`) {
			continue
		}
		var r Response
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("bad response line %q: %v", line, err)
		}
		out[r.ID] = r
	}
	return out
}

type handlerFunc func(ctx context.Context, command string, args any) (any, error)

func (f handlerFunc) Handle(ctx context.Context, command string, args any) (any, error) {
	return f(ctx, command, args)
}

func TestConn_Serve(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"method":"seekTo","args":5000}`,
		`{"id":2,"method":"selectTrack","args":[1,0]}`,
		`{"id":3,"method":"nope"}`,
		`{"id":4,"method":"prepare","args":"file:///a.mp4"}`,
	}, "\n")

	var gotArgs []any
	h := handlerFunc(func(ctx context.Context, command string, args any) (any, error) {
		gotArgs = append(gotArgs, args)
		switch command {
		case "prepare":
			return player.PrepareResult{DurationMs: 120000}, nil
		case "nope":
			return nil, fmt.Errorf("%w: %q", player.ErrUnsupportedCommand, command)
		default:
			return nil, nil
		}
	})

	var out syncBuffer
	c := NewConn(strings.NewReader(input), &out, logger.NewNoop())
	if err := c.Serve(context.Background(), h); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	if n, ok := gotArgs[0].(json.Number); !ok || n.String() != "5000" {
		t.Errorf("seekTo args = %#v, want json.Number 5000", gotArgs[0])
	}
	if list, ok := gotArgs[1].([]any); !ok || len(list) != 2 {
		t.Errorf("selectTrack args = %#v, want 2-element list", gotArgs[1])
	}
	if gotArgs[2] != nil {
		t.Errorf("missing args = %#v, want nil", gotArgs[2])
	}

	lines := out.Lines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %v", len(lines), lines)
	}
	if lines[0] != `{"id":1,"result":null}` {
		t.Errorf("ack = %s", lines[0])
	}
	if lines[3] != `{"id":4,"result":{"durationMs":120000,"isDeviceMuted":false}}` {
		t.Errorf("prepare response = %s", lines[3])
	}

	resp := out.responses(t)
	if resp[3].Error == nil || resp[3].Error.Code != "UnsupportedCommand" {
		t.Errorf("expected UnsupportedCommand for id 3, got %+v", resp[3])
	}
}

func TestConn_ServeMalformedRequest(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"x","method":"play"}`,
		`{"id":7,"method":"seekTo","args":{"bad":}}`,
		``,
		`{"id":5,"method":"play","args":[1,}`,
		`{"id":2,"method":"play"}`,
	}, "\n") + "\n"

	var out syncBuffer
	c := NewConn(strings.NewReader(input), &out, logger.NewNoop())
	var handled []string
	h := handlerFunc(func(ctx context.Context, command string, args any) (any, error) {
		handled = append(handled, command)
		return nil, nil
	})

	if err := c.Serve(context.Background(), h); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	if len(handled) != 1 || handled[0] != "play" {
		t.Errorf("handled = %v, want only the valid play", handled)
	}

	lines := out.Lines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 replies, got %d: %v", len(lines), lines)
	}
	for i, line := range lines[:3] {
		var r Response
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("bad reply %q: %v", line, err)
		}
		if r.Error == nil || r.Error.Code != "InvalidArgument" {
			t.Errorf("reply %d = %s, want InvalidArgument", i, line)
		}
		if r.ID != 0 {
			t.Errorf("reply %d id = %d, want 0 for an unreadable id", i, r.ID)
		}
	}
	if lines[3] != `{"id":2,"result":null}` {
		t.Errorf("valid request reply = %s", lines[3])
	}
}

func TestConn_ServeMalformedRequestKeepsID(t *testing.T) {
	var out syncBuffer
	c := NewConn(strings.NewReader(`{"id":9,"method":5}`+"\n"), &out, logger.NewNoop())
	h := handlerFunc(func(ctx context.Context, command string, args any) (any, error) {
		t.Error("handler must not run for a malformed request")
		return nil, nil
	})

	if err := c.Serve(context.Background(), h); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	resp := out.responses(t)
	if r, ok := resp[9]; !ok || r.Error == nil || r.Error.Code != "InvalidArgument" {
		t.Errorf("expected InvalidArgument for id 9, got %+v", resp)
	}
}

func TestConn_ServeStreamError(t *testing.T) {
	readErr := errors.New("connection reset")
	c := NewConn(iotest.ErrReader(readErr), io.Discard, logger.NewNoop())

	err := c.Serve(context.Background(), handlerFunc(func(context.Context, string, any) (any, error) { return nil, nil }))
	if !errors.Is(err, readErr) {
		t.Errorf("err = %v, want %v", err, readErr)
	}
}

func TestConn_ServeCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := NewConn(pr, io.Discard, logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Serve(ctx, handlerFunc(func(context.Context, string, any) (any, error) { return nil, nil }))
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestConn_EmitAndContentChanged(t *testing.T) {
	var out syncBuffer
	c := NewConn(strings.NewReader(""), &out, logger.NewNoop())

	if err := c.Emit(ports.Event{Method: player.EventIsPlayingChanged, Args: true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Emit(ports.Event{Method: player.EventRenderedFirstFrame}); err != nil {
		t.Fatal(err)
	}
	if err := c.ContentChanged(ports.ContentChange{URI: "file:///lib/a.mp4"}); err != nil {
		t.Fatal(err)
	}
	if err := c.ContentChanged(ports.ContentChange{}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		`{"event":"onIsPlayingChanged","args":true}`,
		`{"event":"onRenderedFirstFrame"}`,
		`{"event":"onContentChanged","args":"file:///lib/a.mp4"}`,
		`{"event":"onContentChanged"}`,
	}
	got := out.Lines()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestConn_SessionRoundTrip(t *testing.T) {
	engine := mocks.NewEngine()
	engine.DurationMs = 120000
	registry := player.NewRegistry(func() ports.Engine { return engine }, player.DefaultOptions(), logger.NewNoop())
	defer registry.ReleaseAll(context.Background())

	surface := mocks.NewSurface(2, 1)
	input := strings.Join([]string{
		`{"id":1,"method":"prepare","args":"file:///a.mp4"}`,
		`{"id":2,"method":"pixelCopy"}`,
		`{"id":3,"method":"selectTrack","args":[9,0]}`,
		`{"id":4,"method":"setPlaybackSpeed","args":0}`,
		`{"id":5,"method":"fastForward"}`,
	}, "\n")

	var out syncBuffer
	c := NewConn(strings.NewReader(input), &out, logger.NewNoop())
	session, err := registry.Open(context.Background(), 1, surface, c)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Serve(context.Background(), session); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	resp := out.responses(t)

	var prepared player.PrepareResult
	if err := json.Unmarshal(resp[1].Result, &prepared); err != nil {
		t.Fatalf("decode prepare result: %v", err)
	}
	if prepared.DurationMs != 120000 || prepared.IsDeviceMuted {
		t.Errorf("prepare result = %+v", prepared)
	}

	var encoded string
	if err := json.Unmarshal(resp[2].Result, &encoded); err != nil {
		t.Fatalf("decode pixelCopy result: %v", err)
	}
	pix, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	if !bytes.Equal(pix, []byte{255, 0, 0, 255, 255, 0, 0, 255}) {
		t.Errorf("pixels = %v", pix)
	}

	for id, code := range map[int64]string{3: "InvalidIndex", 4: "InvalidArgument", 5: "UnsupportedCommand"} {
		if resp[id].Error == nil || resp[id].Error.Code != code {
			t.Errorf("response %d = %+v, want error %s", id, resp[id], code)
		}
	}
}

func TestConn_CaptureFailureCarriesCode(t *testing.T) {
	registry := player.NewRegistry(func() ports.Engine { return mocks.NewEngine() }, player.DefaultOptions(), logger.NewNoop())
	defer registry.ReleaseAll(context.Background())

	input := `{"id":1,"method":"prepare","args":"file:///a.mp4"}` + "\n" + `{"id":2,"method":"pixelCopy"}`
	var out syncBuffer
	c := NewConn(strings.NewReader(input), &out, logger.NewNoop())
	session, err := registry.Open(context.Background(), 1, mocks.NewSurface(0, 0), c)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Serve(context.Background(), session); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	r := out.responses(t)[2]
	if r.Error == nil || r.Error.Code != "CaptureFailure" {
		t.Fatalf("expected CaptureFailure, got %+v", r)
	}
	if r.Error.CopyResult == nil || *r.Error.CopyResult != int(ports.CopyErrorSourceInvalid) {
		t.Errorf("copyResult = %v, want %d", r.Error.CopyResult, ports.CopyErrorSourceInvalid)
	}
}

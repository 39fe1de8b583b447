// Package jsonchannel carries the per-instance command/event channel as
// JSON lines over a byte stream.
//
// Requests are {"id":n,"method":"...","args":...}. Each request gets one
// response, either {"id":n,"result":...} or
// {"id":n,"error":{"code":"...","message":"..."}}. A line that is not a
// valid request is answered with an InvalidArgument error, using the id if
// it can be recovered and 0 otherwise. Events are written as
// {"event":"...","args":...} between responses.
package jsonchannel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/user/mediactl/pkg/player"
	"github.com/user/mediactl/pkg/ports"
)

// EventContentChanged is the event name for library change notifications.
const EventContentChanged = "onContentChanged"

// Request is one inbound command.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// ErrorBody describes a failed command.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// CopyResult is the platform failure code of a failed capture.
	CopyResult *int `json:"copyResult,omitempty"`
}

// Response is one outbound reply. Exactly one of Result and Error is set
// on the wire.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// EventMessage is one outbound event.
type EventMessage struct {
	Event string `json:"event"`
	Args  any    `json:"args,omitempty"`
}

type resultMessage struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

type errorMessage struct {
	ID    int64     `json:"id"`
	Error ErrorBody `json:"error"`
}

// Handler executes commands. *player.Session implements it.
type Handler interface {
	Handle(ctx context.Context, command string, args any) (any, error)
}

// Conn is one JSON-lines channel. Writes are serialized, so events and
// responses may be written from different goroutines.
type Conn struct {
	r      io.Reader
	logger ports.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

// NewConn creates a channel reading requests from r and writing to w.
func NewConn(r io.Reader, w io.Writer, logger ports.Logger) *Conn {
	return &Conn{
		r:      r,
		enc:    json.NewEncoder(w),
		logger: logger.WithComponent("channel"),
	}
}

// Emit writes an event. It implements ports.EventSink.
func (c *Conn) Emit(event ports.Event) error {
	return c.write(EventMessage{Event: event.Method, Args: event.Args})
}

// ContentChanged writes a library change event. It implements
// ports.ChangeSink.
func (c *Conn) ContentChanged(change ports.ContentChange) error {
	var args any
	if change.URI != "" {
		args = change.URI
	}
	return c.write(EventMessage{Event: EventContentChanged, Args: args})
}

func (c *Conn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(v); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

type inbound struct {
	req Request
	// bad is set when the line is not a valid request.
	bad error
	err error
}

// Serve reads requests until the stream ends or ctx is cancelled and
// executes them one at a time. A line that is not a valid request gets an
// InvalidArgument reply and serving continues. A clean end of stream
// returns nil. On cancellation a read in progress is abandoned and ends
// when the reader is closed.
func (c *Conn) Serve(ctx context.Context, h Handler) error {
	requests := make(chan inbound)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(requests)
		br := bufio.NewReader(c.r)
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				in := parseRequest(line)
				select {
				case requests <- in:
				case <-stop:
					return
				}
			}
			if err != nil {
				select {
				case requests <- inbound{err: err}:
				case <-stop:
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-requests:
			if !ok {
				return nil
			}
			if errors.Is(in.err, io.EOF) {
				return nil
			}
			if in.err != nil {
				return fmt.Errorf("read request: %w", in.err)
			}
			if in.bad != nil {
				c.logger.Debug("Command %s failed: %s", in.req.Method, in.bad)
				if err := c.write(errorMessage{ID: in.req.ID, Error: errorBody(in.bad)}); err != nil {
					return err
				}
				continue
			}
			if err := c.serveOne(ctx, h, in.req); err != nil {
				return err
			}
		}
	}
}

// parseRequest decodes one request line. When the line is invalid the id
// is recovered if it can be, so the error reply can be correlated.
func parseRequest(line []byte) inbound {
	var in inbound
	err := json.Unmarshal(line, &in.req)
	if err == nil {
		return in
	}
	in.bad = fmt.Errorf("%w: malformed request: %s", player.ErrInvalidArgument, err)

	var partial struct {
		ID     json.RawMessage `json:"id"`
		Method json.RawMessage `json:"method"`
	}
	in.req = Request{}
	if json.Unmarshal(line, &partial) == nil {
		_ = json.Unmarshal(partial.ID, &in.req.ID)
		_ = json.Unmarshal(partial.Method, &in.req.Method)
	}
	return in
}

func (c *Conn) serveOne(ctx context.Context, h Handler, req Request) error {
	args, err := decodeArgs(req.Args)
	if err != nil {
		return c.write(errorMessage{ID: req.ID, Error: errorBody(err)})
	}

	c.logger.Debug("Command %s (%d)", req.Method, req.ID)
	result, err := h.Handle(ctx, req.Method, args)
	if err != nil {
		c.logger.Debug("Command %s failed: %s", req.Method, err)
		return c.write(errorMessage{ID: req.ID, Error: errorBody(err)})
	}
	return c.write(resultMessage{ID: req.ID, Result: result})
}

// decodeArgs decodes raw arguments into the generic shapes the dispatcher
// accepts. Numbers stay json.Number so integers keep full precision.
func decodeArgs(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: %s", player.ErrInvalidArgument, err)
	}
	return args, nil
}

func errorBody(err error) ErrorBody {
	body := ErrorBody{
		Code:    player.ErrorCode(err),
		Message: err.Error(),
	}
	if code, ok := player.ErrorDetails(err); ok {
		v := int(code)
		body.CopyResult = &v
	}
	return body
}

var (
	_ ports.EventSink  = (*Conn)(nil)
	_ ports.ChangeSink = (*Conn)(nil)
	_ Handler          = (*player.Session)(nil)
)

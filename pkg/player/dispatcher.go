package player

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

type commandFunc func(ctx context.Context, s *Session, args any) (any, error)

// commands is the dispatch table for Session.Handle.
var commands = map[string]commandFunc{
	CommandPrepare:          prepareCommand,
	CommandRelease:          releaseCommand,
	CommandPlay:             playCommand,
	CommandPause:            pauseCommand,
	CommandSeekTo:           seekToCommand,
	CommandPixelCopy:        pixelCopyCommand,
	CommandSetDeviceMuted:   setDeviceMutedCommand,
	CommandSetPlaybackSpeed: setPlaybackSpeedCommand,
	CommandSetRepeat:        setRepeatCommand,
	CommandSelectTrack:      selectTrackCommand,
	CommandDeselectTrack:    deselectTrackCommand,
}

// Handle executes a named command with its arguments. Arguments use the
// shapes produced by decoding JSON into an interface value (string, bool,
// float64, []any) as well as native Go integers, floats and []int.
// Results are nil for acknowledgements, PrepareResult for prepare and
// []byte for pixelCopy.
func (s *Session) Handle(ctx context.Context, command string, args any) (any, error) {
	fn, ok := commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, command)
	}
	return fn(ctx, s, args)
}

func prepareCommand(ctx context.Context, s *Session, args any) (any, error) {
	uri, err := stringArg(args)
	if err != nil {
		return nil, err
	}
	p, err := s.player(ctx)
	if err != nil {
		return nil, err
	}
	res, err := p.Prepare(ctx, uri)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func releaseCommand(ctx context.Context, s *Session, _ any) (any, error) {
	return nil, s.registry.Release(ctx, s.id)
}

func playCommand(ctx context.Context, s *Session, _ any) (any, error) {
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.Play(ctx)
}

func pauseCommand(ctx context.Context, s *Session, _ any) (any, error) {
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.Pause(ctx)
}

func seekToCommand(ctx context.Context, s *Session, args any) (any, error) {
	positionMs, err := intArg(args)
	if err != nil {
		return nil, err
	}
	if positionMs < 0 {
		return nil, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, positionMs)
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.SeekTo(ctx, positionMs)
}

func pixelCopyCommand(ctx context.Context, s *Session, _ any) (any, error) {
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	pix, err := p.PixelCopy(ctx)
	if err != nil {
		return nil, err
	}
	return pix, nil
}

func setDeviceMutedCommand(ctx context.Context, s *Session, args any) (any, error) {
	muted, err := boolArg(args)
	if err != nil {
		return nil, err
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.SetDeviceMuted(ctx, muted)
}

func setPlaybackSpeedCommand(ctx context.Context, s *Session, args any) (any, error) {
	speed, err := floatArg(args)
	if err != nil {
		return nil, err
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidArgument, speed)
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.SetPlaybackSpeed(ctx, speed)
}

func setRepeatCommand(ctx context.Context, s *Session, args any) (any, error) {
	enabled, err := boolArg(args)
	if err != nil {
		return nil, err
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.SetRepeat(ctx, enabled)
}

func selectTrackCommand(ctx context.Context, s *Session, args any) (any, error) {
	indices, err := intListArg(args, 2)
	if err != nil {
		return nil, err
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.SelectTrack(ctx, int(indices[0]), int(indices[1]))
}

func deselectTrackCommand(ctx context.Context, s *Session, args any) (any, error) {
	groupIndex, err := intArg(args)
	if err != nil {
		return nil, err
	}
	p, err := s.live()
	if err != nil {
		return nil, err
	}
	return nil, p.DeselectTrack(ctx, int(groupIndex))
}

func stringArg(args any) (string, error) {
	v, ok := args.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %T", ErrInvalidArgument, args)
	}
	return v, nil
}

func boolArg(args any) (bool, error) {
	v, ok := args.(bool)
	if !ok {
		return false, fmt.Errorf("%w: want bool, got %T", ErrInvalidArgument, args)
	}
	return v, nil
}

func floatArg(args any) (float64, error) {
	switch v := args.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: want number, got %T", ErrInvalidArgument, args)
	}
}

func intArg(args any) (int64, error) {
	switch v := args.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: want integer, got %v", ErrInvalidArgument, v)
		}
		return int64(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrInvalidArgument, args)
	}
}

func intListArg(args any, n int) ([]int64, error) {
	var items []any
	switch v := args.(type) {
	case []any:
		items = v
	case []int:
		for _, i := range v {
			items = append(items, i)
		}
	case []int64:
		for _, i := range v {
			items = append(items, i)
		}
	default:
		return nil, fmt.Errorf("%w: want list of %d integers, got %T", ErrInvalidArgument, n, args)
	}
	if len(items) != n {
		return nil, fmt.Errorf("%w: want %d integers, got %d", ErrInvalidArgument, n, len(items))
	}
	out := make([]int64, n)
	for i, item := range items {
		v, err := intArg(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package player

import (
	"fmt"

	"github.com/user/mediactl/pkg/ports"
)

// TrackType is the user-facing stream type of a track.
type TrackType int

const (
	TrackVideo TrackType = iota
	TrackAudio
	TrackText

	// TrackTypeCount is the number of user-facing track types.
	TrackTypeCount = 3
)

// String returns the string representation of the track type.
func (t TrackType) String() string {
	switch t {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	case TrackText:
		return "text"
	default:
		return "unknown"
	}
}

// trackTypeOf maps an engine media type to a user-facing type.
// Other media types have no user-facing type and are skipped.
func trackTypeOf(t ports.MediaType) (TrackType, bool) {
	switch t {
	case ports.MediaTypeVideo:
		return TrackVideo, true
	case ports.MediaTypeAudio:
		return TrackAudio, true
	case ports.MediaTypeText:
		return TrackText, true
	default:
		return 0, false
	}
}

// Track is one selectable track in the catalog.
type Track struct {
	Type       TrackType `json:"type" yaml:"type"`
	Index      int       `json:"index" yaml:"index"`
	CodecName  string    `json:"codecName" yaml:"codecName"`
	Language   string    `json:"language" yaml:"language"`
	Title      string    `json:"title" yaml:"title"`
	Width      *int      `json:"width" yaml:"width"`
	Height     *int      `json:"height" yaml:"height"`
	GroupIndex int       `json:"groupIndex" yaml:"groupIndex"`
	TrackIndex int       `json:"trackIndex" yaml:"trackIndex"`
}

// Selection holds the selected track per type, or nil.
type Selection [TrackTypeCount]*Track

// Catalog is the flattened, densely indexed track listing derived from one
// engine track snapshot. A Catalog is never patched: every track-set change
// produces a new one.
type Catalog struct {
	version uint64
	built   bool
	groups  []ports.TrackGroup
	tracks  []Track
	sel     Selection
}

// RebuildCatalog derives a catalog from the engine's track groups.
func RebuildCatalog(tracks ports.Tracks) *Catalog {
	c := &Catalog{
		version: tracks.Version,
		built:   true,
		groups:  tracks.Groups,
		tracks:  make([]Track, 0),
	}

	count := 0
	for groupIndex, group := range tracks.Groups {
		typ, ok := trackTypeOf(group.Type)
		if !ok {
			continue
		}
		for trackIndex, format := range group.Tracks {
			c.tracks = append(c.tracks, Track{
				Type:       typ,
				Index:      count,
				CodecName:  format.Codecs,
				Language:   format.Language,
				Title:      format.Label,
				Width:      optional(format.Width),
				Height:     optional(format.Height),
				GroupIndex: groupIndex,
				TrackIndex: trackIndex,
			})
			count++
			if format.Selected {
				c.sel[typ] = &c.tracks[len(c.tracks)-1]
			}
		}
	}

	// Appends may have moved the backing array after a selection pointer
	// was taken, so point the selection at the final slice.
	for typ, t := range c.sel {
		if t != nil {
			c.sel[typ] = &c.tracks[t.Index]
		}
	}
	return c
}

func optional(v int) *int {
	if v == ports.NoValue {
		return nil
	}
	return &v
}

// Tracks returns the catalog entries in index order.
func (c *Catalog) Tracks() []Track {
	return c.tracks
}

// Selected returns the selected track per type.
func (c *Catalog) Selected() Selection {
	return c.sel
}

// Version returns the engine track snapshot version the catalog was built from.
func (c *Catalog) Version() uint64 {
	return c.version
}

// Override resolves a selection of trackIndices within the engine group at
// groupIndex. current is the engine's present track snapshot; when it is
// ahead of the catalog the request is rejected with ErrStaleCatalog.
func (c *Catalog) Override(groupIndex int, trackIndices []int, current ports.Tracks) (ports.TrackSelectionOverride, error) {
	if groupIndex < 0 || groupIndex >= len(c.groups) {
		return ports.TrackSelectionOverride{}, fmt.Errorf("%w: group %d of %d", ErrInvalidIndex, groupIndex, len(c.groups))
	}
	group := c.groups[groupIndex]
	for _, i := range trackIndices {
		if i < 0 || i >= len(group.Tracks) {
			return ports.TrackSelectionOverride{}, fmt.Errorf("%w: track %d of %d in group %d", ErrInvalidIndex, i, len(group.Tracks), groupIndex)
		}
	}
	if !c.built || current.Version != c.version {
		return ports.TrackSelectionOverride{}, fmt.Errorf("%w: catalog version %d, engine version %d", ErrStaleCatalog, c.version, current.Version)
	}
	return ports.TrackSelectionOverride{
		GroupID:      group.ID,
		TrackIndices: append([]int{}, trackIndices...),
	}, nil
}

// TracksChanged is the payload of the onTracksChanged event.
type TracksChanged struct {
	TrackInfo []Track  `json:"trackInfo" yaml:"trackInfo"`
	Selected  []*Track `json:"selected" yaml:"selected"`
}

// Payload returns the onTracksChanged payload for the catalog.
func (c *Catalog) Payload() TracksChanged {
	sel := make([]*Track, TrackTypeCount)
	copy(sel, c.sel[:])
	return TracksChanged{
		TrackInfo: c.tracks,
		Selected:  sel,
	}
}

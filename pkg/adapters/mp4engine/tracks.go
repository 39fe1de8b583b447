package mp4engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediactl/pkg/ports"
)

// Media describes a parsed MP4 source.
type Media struct {
	DurationMs int64
	Groups     []ports.TrackGroup
	Title      string
}

// Probe parses the MP4 structure from reader. Sample data is not read.
func Probe(reader io.ReadSeeker) (*Media, error) {
	f, err := mp4.DecodeFile(reader, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	return mediaFromFile(f)
}

func mediaFromFile(f *mp4.File) (*Media, error) {
	moov := f.Moov
	if moov == nil && f.IsFragmented() && f.Init != nil {
		moov = f.Init.Moov
	}
	if moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}
	return mediaFromMoov(moov), nil
}

// mediaFromMoov maps every trak to one track group, in file order.
func mediaFromMoov(moov *mp4.MoovBox) *Media {
	m := &Media{
		DurationMs: ports.TimeUnset,
		Groups:     make([]ports.TrackGroup, 0, len(moov.Traks)),
	}
	if moov.Mvhd != nil && moov.Mvhd.Timescale > 0 && moov.Mvhd.Duration > 0 {
		m.DurationMs = int64(moov.Mvhd.Duration * 1000 / uint64(moov.Mvhd.Timescale))
	}
	for i, trak := range moov.Traks {
		m.Groups = append(m.Groups, groupFromTrak(i, trak))
	}
	return m
}

func groupFromTrak(index int, trak *mp4.TrakBox) ports.TrackGroup {
	id := fmt.Sprintf("trak-%d", index)
	if trak.Tkhd != nil {
		id = fmt.Sprintf("trak-%d", trak.Tkhd.TrackID)
	}

	format := ports.TrackFormat{
		Width:  ports.NoValue,
		Height: ports.NoValue,
	}
	var mediaType ports.MediaType
	if trak.Mdia != nil {
		if trak.Mdia.Hdlr != nil {
			mediaType = mediaTypeOf(trak.Mdia.Hdlr.HandlerType)
			format.Label = strings.TrimRight(trak.Mdia.Hdlr.Name, "\x00")
		}
		if trak.Mdia.Mdhd != nil {
			if lang := trak.Mdia.Mdhd.GetLanguage(); lang != "und" {
				format.Language = lang
			}
		}
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			describeSampleEntry(trak.Mdia.Minf.Stbl.Stsd, &format)
		}
	}

	return ports.TrackGroup{
		ID:     id,
		Type:   mediaType,
		Tracks: []ports.TrackFormat{format},
	}
}

// mediaTypeOf maps an MP4 handler type to an engine media type.
func mediaTypeOf(handlerType string) ports.MediaType {
	switch handlerType {
	case "vide":
		return ports.MediaTypeVideo
	case "soun":
		return ports.MediaTypeAudio
	case "text", "subt", "sbtl", "clcp":
		return ports.MediaTypeText
	case "meta":
		return ports.MediaTypeMetadata
	case "pict", "auxv":
		return ports.MediaTypeImage
	default:
		return ports.MediaTypeUnknown
	}
}

func describeSampleEntry(stsd *mp4.StsdBox, format *ports.TrackFormat) {
	for _, child := range stsd.Children {
		format.Codecs = child.Type()
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			format.Width = int(vse.Width)
			format.Height = int(vse.Height)
		}
		return
	}
}

// defaultSelection selects the first track of the first video and audio
// groups. Text is off until selected explicitly.
func defaultSelection(groups []ports.TrackGroup) {
	seen := map[ports.MediaType]bool{}
	for gi := range groups {
		g := &groups[gi]
		if g.Type != ports.MediaTypeVideo && g.Type != ports.MediaTypeAudio {
			continue
		}
		if seen[g.Type] || len(g.Tracks) == 0 {
			continue
		}
		seen[g.Type] = true
		g.Tracks[0].Selected = true
	}
}

// applyOverride restricts the selection of the overridden group's type to
// the given indices. It returns false when the group is unknown or an
// index is out of range.
func applyOverride(groups []ports.TrackGroup, o ports.TrackSelectionOverride) ([]ports.TrackGroup, bool) {
	target := -1
	for gi, g := range groups {
		if g.ID == o.GroupID {
			target = gi
			break
		}
	}
	if target < 0 {
		return nil, false
	}
	for _, i := range o.TrackIndices {
		if i < 0 || i >= len(groups[target].Tracks) {
			return nil, false
		}
	}

	typ := groups[target].Type
	out := cloneGroups(groups)
	for gi := range out {
		if out[gi].Type != typ {
			continue
		}
		tracks := out[gi].Tracks
		for ti := range tracks {
			tracks[ti].Selected = false
		}
		if gi == target {
			for _, i := range o.TrackIndices {
				tracks[i].Selected = true
			}
		}
	}
	return out, true
}

// cloneGroups copies groups including their track slices.
func cloneGroups(groups []ports.TrackGroup) []ports.TrackGroup {
	out := make([]ports.TrackGroup, len(groups))
	for gi, g := range groups {
		g.Tracks = append([]ports.TrackFormat{}, g.Tracks...)
		out[gi] = g
	}
	return out
}

package player

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/user/mediactl/pkg/ports"
)

// sampleTracks has two video tracks, an unmapped metadata group, one audio
// track and one text track.
func sampleTracks() ports.Tracks {
	return ports.Tracks{
		Version: 3,
		Groups: []ports.TrackGroup{
			{ID: "v", Type: ports.MediaTypeVideo, Tracks: []ports.TrackFormat{
				{Codecs: "avc1.64001f", Width: 1280, Height: 720, Selected: true},
				{Codecs: "avc1.640028", Width: 1920, Height: 1080},
			}},
			{ID: "m", Type: ports.MediaTypeMetadata, Tracks: []ports.TrackFormat{
				{Codecs: "id3", Width: ports.NoValue, Height: ports.NoValue},
			}},
			{ID: "a", Type: ports.MediaTypeAudio, Tracks: []ports.TrackFormat{
				{Codecs: "mp4a.40.2", Language: "en", Label: "Stereo", Width: ports.NoValue, Height: ports.NoValue, Selected: true},
			}},
			{ID: "t", Type: ports.MediaTypeText, Tracks: []ports.TrackFormat{
				{Codecs: "wvtt", Language: "sv", Width: ports.NoValue, Height: ports.NoValue},
			}},
		},
	}
}

func TestRebuildCatalog(t *testing.T) {
	c := RebuildCatalog(sampleTracks())

	tracks := c.Tracks()
	if len(tracks) != 4 {
		t.Fatalf("expected 4 tracks, got %d", len(tracks))
	}

	want := []struct {
		typ        TrackType
		groupIndex int
		trackIndex int
	}{
		{TrackVideo, 0, 0},
		{TrackVideo, 0, 1},
		{TrackAudio, 2, 0},
		{TrackText, 3, 0},
	}
	for i, w := range want {
		tr := tracks[i]
		if tr.Index != i {
			t.Errorf("track %d: Index = %d", i, tr.Index)
		}
		if tr.Type != w.typ || tr.GroupIndex != w.groupIndex || tr.TrackIndex != w.trackIndex {
			t.Errorf("track %d = %+v, want type %s at (%d,%d)", i, tr, w.typ, w.groupIndex, w.trackIndex)
		}
	}

	if tracks[0].Width == nil || *tracks[0].Width != 1280 || *tracks[0].Height != 720 {
		t.Errorf("unexpected video dimensions: %v x %v", tracks[0].Width, tracks[0].Height)
	}
	if tracks[2].Width != nil || tracks[2].Height != nil {
		t.Error("expected audio dimensions to be nil")
	}
	if tracks[2].Language != "en" || tracks[2].Title != "Stereo" || tracks[2].CodecName != "mp4a.40.2" {
		t.Errorf("unexpected audio descriptor: %+v", tracks[2])
	}

	sel := c.Selected()
	if sel[TrackVideo] == nil || sel[TrackVideo].Index != 0 {
		t.Errorf("video selection = %+v, want index 0", sel[TrackVideo])
	}
	if sel[TrackAudio] == nil || sel[TrackAudio].Index != 2 {
		t.Errorf("audio selection = %+v, want index 2", sel[TrackAudio])
	}
	if sel[TrackText] != nil {
		t.Errorf("text selection = %+v, want nil", sel[TrackText])
	}
	if c.Version() != 3 {
		t.Errorf("Version = %d, want 3", c.Version())
	}
}

func TestRebuildCatalog_SkippedGroupsDoNotConsumeIndices(t *testing.T) {
	// Two video tracks, one audio track, one unmapped subtitle-only group
	tracks := ports.Tracks{Groups: []ports.TrackGroup{
		{ID: "x", Type: ports.MediaTypeUnknown, Tracks: []ports.TrackFormat{{}}},
		{ID: "v1", Type: ports.MediaTypeVideo, Tracks: []ports.TrackFormat{{}}},
		{ID: "img", Type: ports.MediaTypeImage, Tracks: []ports.TrackFormat{{}, {}}},
		{ID: "v2", Type: ports.MediaTypeVideo, Tracks: []ports.TrackFormat{{}}},
		{ID: "a", Type: ports.MediaTypeAudio, Tracks: []ports.TrackFormat{{}}},
	}}

	c := RebuildCatalog(tracks)
	got := c.Tracks()
	if len(got) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(got))
	}
	for i, tr := range got {
		if tr.Index != i {
			t.Errorf("track %d has Index %d", i, tr.Index)
		}
	}
	if got[1].GroupIndex != 3 || got[2].GroupIndex != 4 {
		t.Errorf("engine coordinates not preserved: %+v", got)
	}
}

func TestRebuildCatalog_SelectionSurvivesGrowth(t *testing.T) {
	// Selecting the first of many tracks must still point into the final
	// track slice.
	formats := make([]ports.TrackFormat, 40)
	formats[0].Selected = true
	c := RebuildCatalog(ports.Tracks{Groups: []ports.TrackGroup{
		{ID: "a", Type: ports.MediaTypeAudio, Tracks: formats},
	}})

	sel := c.Selected()[TrackAudio]
	if sel != &c.Tracks()[0] {
		t.Error("selection does not point at the catalog entry")
	}
}

func TestCatalog_Override(t *testing.T) {
	current := sampleTracks()
	c := RebuildCatalog(current)

	tests := []struct {
		name       string
		catalog    *Catalog
		groupIndex int
		indices    []int
		current    ports.Tracks
		wantErr    error
		wantGroup  string
	}{
		{name: "select", catalog: c, groupIndex: 0, indices: []int{1}, current: current, wantGroup: "v"},
		{name: "deselect", catalog: c, groupIndex: 3, current: current, wantGroup: "t"},
		{name: "negative group", catalog: c, groupIndex: -1, indices: []int{0}, current: current, wantErr: ErrInvalidIndex},
		{name: "group out of range", catalog: c, groupIndex: 4, indices: []int{0}, current: current, wantErr: ErrInvalidIndex},
		{name: "track out of range", catalog: c, groupIndex: 2, indices: []int{1}, current: current, wantErr: ErrInvalidIndex},
		{name: "engine ahead of catalog", catalog: c, groupIndex: 0, indices: []int{0}, current: ports.Tracks{Version: 4, Groups: current.Groups}, wantErr: ErrStaleCatalog},
		{name: "bounds checked before staleness", catalog: c, groupIndex: 9, current: ports.Tracks{Version: 4}, wantErr: ErrInvalidIndex},
		{name: "empty catalog", catalog: &Catalog{}, groupIndex: 0, current: current, wantErr: ErrInvalidIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.catalog.Override(tt.groupIndex, tt.indices, tt.current)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if o.GroupID != tt.wantGroup {
				t.Errorf("GroupID = %q, want %q", o.GroupID, tt.wantGroup)
			}
			if len(o.TrackIndices) != len(tt.indices) {
				t.Errorf("TrackIndices = %v, want %v", o.TrackIndices, tt.indices)
			}
		})
	}
}

func TestCatalog_Payload(t *testing.T) {
	p := RebuildCatalog(sampleTracks()).Payload()

	if len(p.Selected) != TrackTypeCount {
		t.Fatalf("expected %d selection slots, got %d", TrackTypeCount, len(p.Selected))
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"trackInfo":[`, `"width":null`, `"width":1280`, `"codecName":"wvtt"`} {
		if !strings.Contains(s, want) {
			t.Errorf("payload %s does not contain %s", s, want)
		}
	}
	if !strings.HasSuffix(s, `null]}`) {
		t.Errorf("expected the text slot to be null: %s", s)
	}
}

func TestCatalog_EmptyPayload(t *testing.T) {
	data, err := json.Marshal((&Catalog{tracks: []Track{}}).Payload())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"trackInfo":[],"selected":[null,null,null]}` {
		t.Errorf("payload = %s", data)
	}
}

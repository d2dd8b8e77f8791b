package tub

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
)

const ThumbnailCount = 8

var ErrNoClips = errors.New("tub has no clips")

type Clip struct {
	Frames         []FrameRecord
	MarkedToDelete bool
}

// Editor holds the clips of one tub along with the selected clip and the frame being viewed
type Editor struct {
	lock     sync.Mutex
	clips    []Clip
	selected int
	current  int
}

func NewEditor(clips [][]FrameRecord) (*Editor, error) {
	clips = lo.Filter(clips, func(frames []FrameRecord, _ int) bool { return len(frames) > 0 })
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	return &Editor{
		clips: lo.Map(clips, func(frames []FrameRecord, _ int) Clip {
			return Clip{Frames: frames}
		}),
	}, nil
}

func (e *Editor) Clips() []Clip {
	e.lock.Lock()
	defer e.lock.Unlock()
	return lo.Map(e.clips, func(clip Clip, _ int) Clip {
		return Clip{Frames: append([]FrameRecord(nil), clip.Frames...), MarkedToDelete: clip.MarkedToDelete}
	})
}

func (e *Editor) Selected() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.selected
}

func (e *Editor) CurrentFrame() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.current
}

// Frame returns the record being viewed
func (e *Editor) Frame() FrameRecord {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.clips[e.selected].Frames[e.current]
}

func (e *Editor) Select(clipIdx int) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if clipIdx < 0 || clipIdx >= len(e.clips) {
		return fmt.Errorf("clip %d out of range, tub has %d clips", clipIdx, len(e.clips))
	}
	e.selected = clipIdx
	e.current = 0
	return nil
}

func (e *Editor) Seek(frameIdx int) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	frames := len(e.clips[e.selected].Frames)
	if frameIdx < 0 || frameIdx >= frames {
		return fmt.Errorf("frame %d out of range, clip has %d frames", frameIdx, frames)
	}
	e.current = frameIdx
	return nil
}

// Split cuts the selected clip at the current frame. The tail becomes a new clip right after
// it and is selected. Splitting at the first or last frame does nothing.
func (e *Editor) Split() bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	clip := e.clips[e.selected]
	if e.current == 0 || e.current >= len(clip.Frames)-1 {
		return false
	}

	head := append([]FrameRecord(nil), clip.Frames[:e.current]...)
	tail := append([]FrameRecord(nil), clip.Frames[e.current:]...)
	e.clips[e.selected].Frames = head

	e.selected++
	e.clips = append(e.clips, Clip{})
	copy(e.clips[e.selected+1:], e.clips[e.selected:])
	e.clips[e.selected] = Clip{Frames: tail}
	e.current = 0
	return true
}

func (e *Editor) ToggleMarkToDelete(clipIdx int) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if clipIdx < 0 || clipIdx >= len(e.clips) {
		return fmt.Errorf("clip %d out of range, tub has %d clips", clipIdx, len(e.clips))
	}
	e.clips[clipIdx].MarkedToDelete = !e.clips[clipIdx].MarkedToDelete
	return nil
}

// Thumbnails picks evenly spaced frames of a clip for previews
func (e *Editor) Thumbnails(clipIdx int) ([]FrameRecord, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if clipIdx < 0 || clipIdx >= len(e.clips) {
		return nil, fmt.Errorf("clip %d out of range, tub has %d clips", clipIdx, len(e.clips))
	}
	frames := e.clips[clipIdx].Frames
	return lo.Map(ThumbnailIndexes(len(frames)), func(i int, _ int) FrameRecord {
		return frames[i]
	}), nil
}

// ThumbnailIndexes spaces ThumbnailCount indexes by round(n/8), clamped to the last frame
func ThumbnailIndexes(n int) []int {
	if n <= 0 {
		return nil
	}
	step := int(math.Floor(float64(n)/ThumbnailCount + 0.5))
	return lo.Times(ThumbnailCount, func(i int) int {
		return lo.Min([]int{step * i, n - 1})
	})
}

// Kept returns the clips not marked for deletion, ready to be saved
func (e *Editor) Kept() [][]FrameRecord {
	e.lock.Lock()
	defer e.lock.Unlock()
	kept := lo.Filter(e.clips, func(clip Clip, _ int) bool { return !clip.MarkedToDelete })
	return lo.Map(kept, func(clip Clip, _ int) []FrameRecord { return clip.Frames })
}

// advance moves to the next frame. At the end of the clip it rewinds and reports false.
func (e *Editor) advance() (FrameRecord, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	frames := e.clips[e.selected].Frames
	e.current++
	if e.current >= len(frames) {
		e.current = 0
		return frames[0], false
	}
	return frames[e.current], true
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/tub"
)

// TubTool runs one edit against a tub on the tub server
type TubTool struct {
	cfg    config.TubConfig
	client *tub.Client
	out    io.Writer
	logger *zap.SugaredLogger
}

func NewTubTool(cfg config.TubConfig, out io.Writer, logger *zap.SugaredLogger) *TubTool {
	return &TubTool{
		cfg:    cfg,
		client: tub.NewClient(cfg.Server, logger),
		out:    out,
		logger: logger,
	}
}

func (t *TubTool) load(ctx context.Context, tubID string) (*tub.Editor, error) {
	clips, err := t.client.Clips(ctx, tubID)
	if err != nil {
		return nil, err
	}
	return tub.NewEditor(clips)
}

func (t *TubTool) Show(ctx context.Context, tubID string) error {
	editor, err := t.load(ctx, tubID)
	if err != nil {
		return err
	}

	for i, clip := range editor.Clips() {
		first, last := clip.Frames[0], clip.Frames[len(clip.Frames)-1]
		fmt.Fprintf(t.out, "clip %d: %d frames (%d-%d)\n", i, len(clip.Frames), first.Index, last.Index)

		thumbs, err := editor.Thumbnails(i)
		if err != nil {
			return err
		}
		for _, frame := range thumbs {
			fmt.Fprintf(t.out, "  %s\n", t.client.ImageURL(tubID, frame))
		}
	}
	return nil
}

// Split cuts clipIdx at frameIdx and saves the result
func (t *TubTool) Split(ctx context.Context, tubID string, clipIdx, frameIdx int) error {
	editor, err := t.load(ctx, tubID)
	if err != nil {
		return err
	}
	err = editor.Select(clipIdx)
	if err != nil {
		return err
	}
	err = editor.Seek(frameIdx)
	if err != nil {
		return err
	}
	if !editor.Split() {
		return fmt.Errorf("cannot split clip %d at its first or last frame", clipIdx)
	}
	t.logger.Infof("split clip %d at frame %d", clipIdx, frameIdx)
	return t.client.Save(ctx, tubID, editor.Kept())
}

// Delete drops the given clips from the tub
func (t *TubTool) Delete(ctx context.Context, tubID string, clipIdxs []int) error {
	editor, err := t.load(ctx, tubID)
	if err != nil {
		return err
	}
	for _, clipIdx := range clipIdxs {
		err = editor.ToggleMarkToDelete(clipIdx)
		if err != nil {
			return err
		}
	}
	if len(editor.Kept()) == 0 {
		return fmt.Errorf("refusing to delete every clip of tub %s", tubID)
	}
	t.logger.Infof("deleting %d clips", len(clipIdxs))
	return t.client.Save(ctx, tubID, editor.Kept())
}

// Save posts clips read from a json file of the form {"clips": [[...], ...]}
func (t *TubTool) Save(ctx context.Context, tubID, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading clips file - %w", err)
	}
	payload := struct {
		Clips [][]tub.FrameRecord `json:"clips"`
	}{}
	err = json.Unmarshal(b, &payload)
	if err != nil {
		return fmt.Errorf("error parsing clips file %s - %w", path, err)
	}
	editor, err := tub.NewEditor(payload.Clips)
	if err != nil {
		return err
	}
	return t.client.Save(ctx, tubID, editor.Kept())
}

// Thumbs writes the preview frames of a clip into dir
func (t *TubTool) Thumbs(ctx context.Context, tubID string, clipIdx int, dir string) error {
	editor, err := t.load(ctx, tubID)
	if err != nil {
		return err
	}
	thumbs, err := editor.Thumbnails(clipIdx)
	if err != nil {
		return err
	}

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed creating %s: %w", dir, err)
	}
	for i, frame := range thumbs {
		img, err := t.client.Thumbnail(ctx, tubID, frame, t.cfg.ThumbnailSize)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("clip%d_thumb%d_frame%d.jpg", clipIdx, i, frame.Index))
		err = imaging.Save(img, path)
		if err != nil {
			return fmt.Errorf("failed saving thumbnail %s: %w", path, err)
		}
		fmt.Fprintln(t.out, path)
	}
	return nil
}

// Play prints the image url of each frame of a clip at the playback rate
func (t *TubTool) Play(ctx context.Context, tubID string, clipIdx int) error {
	editor, err := t.load(ctx, tubID)
	if err != nil {
		return err
	}
	err = editor.Select(clipIdx)
	if err != nil {
		return err
	}

	fmt.Fprintln(t.out, t.client.ImageURL(tubID, editor.Frame()))
	return editor.Play(ctx, clock.New(), t.cfg.PlayInterval, func(frame tub.FrameRecord) {
		fmt.Fprintln(t.out, t.client.ImageURL(tubID, frame))
	})
}

package tub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

type tubPayload struct {
	Clips [][]FrameRecord `json:"clips"`
}

// Client talks to the tub web server
type Client struct {
	base   string
	client *http.Client
	logger *zap.SugaredLogger
}

func NewClient(base string, logger *zap.SugaredLogger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: cleanhttp.DefaultPooledClient(),
		logger: logger,
	}
}

func (c *Client) Clips(ctx context.Context, tubID string) ([][]FrameRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tubURL(tubID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed building tub request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed fetching tub %s: %w", tubID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching tub %s returned %s", tubID, resp.Status)
	}

	payload := tubPayload{}
	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed decoding tub %s: %w", tubID, err)
	}
	c.logger.Infof("loaded tub %s with %d clips", tubID, len(payload.Clips))
	return payload.Clips, nil
}

// Save replaces the tub's clips. Frames left out are deleted by the server.
func (c *Client) Save(ctx context.Context, tubID string, clips [][]FrameRecord) error {
	body, err := json.Marshal(tubPayload{Clips: clips})
	if err != nil {
		return fmt.Errorf("failed encoding clips: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tubURL(tubID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed building tub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed saving tub %s: %w", tubID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("saving tub %s returned %s", tubID, resp.Status)
	}
	c.logger.Infof("saved tub %s with %d clips", tubID, len(clips))
	return nil
}

func (c *Client) ImageURL(tubID string, frame FrameRecord) string {
	return fmt.Sprintf("%s/tub_data/%s/%s", c.base, url.PathEscape(tubID), frame.ImageName())
}

func (c *Client) Image(ctx context.Context, tubID string, frame FrameRecord) (image.Image, error) {
	imageURL := c.ImageURL(tubID, frame)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed building image request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed fetching %s: %w", imageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s returned %s", imageURL, resp.Status)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed decoding frame %d: %w", frame.Index, err)
	}
	return img, nil
}

// Thumbnail fetches a frame and scales it to width, keeping the aspect ratio
func (c *Client) Thumbnail(ctx context.Context, tubID string, frame FrameRecord, width int) (image.Image, error) {
	img, err := c.Image(ctx, tubID, frame)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}

func (c *Client) tubURL(tubID string) string {
	return fmt.Sprintf("%s/api/tubs/%s", c.base, url.PathEscape(tubID))
}

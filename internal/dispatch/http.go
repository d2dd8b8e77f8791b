package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/Speshl/gorrc_drive/internal/models"
)

// HTTPSender posts JSON commands to the vehicle web server. Requests are bounded by ctx only.
type HTTPSender struct {
	client   *http.Client
	driveURL string
	pilotURL string
}

func NewHTTPSender(driveURL, pilotURL string) *HTTPSender {
	return &HTTPSender{
		client:   cleanhttp.DefaultPooledClient(),
		driveURL: driveURL,
		pilotURL: pilotURL,
	}
}

func (h *HTTPSender) SendDrive(ctx context.Context, cmd models.DriveCommand) error {
	return h.post(ctx, h.driveURL, cmd)
}

func (h *HTTPSender) SendPilot(ctx context.Context, cmd models.PilotCommand) error {
	return h.post(ctx, h.pilotURL, cmd)
}

func (h *HTTPSender) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTPSender) post(ctx context.Context, url string, body any) error {
	encoded, err := encode(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(encoded))
	if err != nil {
		return fmt.Errorf("failed building request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed posting to %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("post to %s returned %s", url, resp.Status)
	}
	return nil
}

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
)

const (
	CommandChannel = "command"
	HudChannel     = "hud"
)

// WebRTCSender sends commands over a data channel to the vehicle. Signalling goes over the
// socket.io relay: Connect emits an offer and HandleAnswer completes the handshake.
type WebRTCSender struct {
	lock sync.Mutex

	cfg       config.WebRTCConfig
	vehicleID string
	session   uuid.UUID
	emitter   Emitter
	logger    *zap.SugaredLogger
	onHud     func(models.Hud)

	peer    *webrtc.PeerConnection
	channel *webrtc.DataChannel
	open    bool
}

func NewWebRTCSender(cfg config.WebRTCConfig, vehicleID string, session uuid.UUID, emitter Emitter, logger *zap.SugaredLogger) *WebRTCSender {
	return &WebRTCSender{
		cfg:       cfg,
		vehicleID: vehicleID,
		session:   session,
		emitter:   emitter,
		logger:    logger,
	}
}

// OnHud registers a handler for hud lines pushed back by the vehicle. Set before Connect.
func (w *WebRTCSender) OnHud(fn func(models.Hud)) {
	w.onHud = fn
}

func (w *WebRTCSender) Connect(ctx context.Context) error {
	iceServers := []webrtc.ICEServer{}
	if w.cfg.StunServer != "" {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{w.cfg.StunServer}})
	}

	peer, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return fmt.Errorf("error creating peer connection: %w", err)
	}
	peer.OnICEConnectionStateChange(w.onICEConnectionStateChange)
	peer.OnDataChannel(w.onDataChannel)

	channel, err := peer.CreateDataChannel(CommandChannel, nil)
	if err != nil {
		peer.Close()
		return fmt.Errorf("error creating %s data channel: %w", CommandChannel, err)
	}
	channel.OnOpen(func() {
		w.logger.Infof("data channel open: %s", channel.Label())
		w.setOpen(true)
	})
	channel.OnClose(func() {
		w.logger.Infof("data channel closed: %s", channel.Label())
		w.setOpen(false)
	})

	offer, err := peer.CreateOffer(nil)
	if err != nil {
		peer.Close()
		return fmt.Errorf("failed to create offer: %w", err)
	}

	// Block until ICE gathering is complete, disabling trickle ICE
	gatherComplete := webrtc.GatheringCompletePromise(peer)
	err = peer.SetLocalDescription(offer)
	if err != nil {
		peer.Close()
		return fmt.Errorf("failed to set local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		peer.Close()
		return ctx.Err()
	}

	encodedOffer, err := encode(models.Offer{
		Offer:     *peer.LocalDescription(),
		VehicleID: w.vehicleID,
		Session:   w.session,
	})
	if err != nil {
		peer.Close()
		return err
	}

	w.lock.Lock()
	w.peer = peer
	w.channel = channel
	w.lock.Unlock()

	w.logger.Info("sending offer")
	w.emitter.Emit(OfferEvent, encodedOffer)
	return nil
}

// HandleAnswer applies the vehicle's answer. Answers for other sessions are ignored.
func (w *WebRTCSender) HandleAnswer(msg string) error {
	answer := models.Answer{}
	err := decode(msg, &answer)
	if err != nil {
		return err
	}
	if answer.Session != w.session {
		w.logger.Debugf("ignoring answer for session %s", answer.Session)
		return nil
	}
	if answer.Answer == nil {
		return fmt.Errorf("answer for session %s has no session description", answer.Session)
	}

	w.lock.Lock()
	peer := w.peer
	w.lock.Unlock()
	if peer == nil {
		return ErrNotConnected
	}

	err = peer.SetRemoteDescription(*answer.Answer)
	if err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}
	w.logger.Info("answer applied")
	return nil
}

func (w *WebRTCSender) SendDrive(ctx context.Context, cmd models.DriveCommand) error {
	return w.send(ctx, models.DataChannelMsg{Type: DriveEvent, Drive: &cmd})
}

func (w *WebRTCSender) SendPilot(ctx context.Context, cmd models.PilotCommand) error {
	return w.send(ctx, models.DataChannelMsg{Type: PilotEvent, Pilot: &cmd})
}

func (w *WebRTCSender) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.open = false
	if w.peer == nil {
		return nil
	}
	err := w.peer.Close()
	w.peer = nil
	w.channel = nil
	if err != nil {
		return fmt.Errorf("failed closing peer connection: %w", err)
	}
	return nil
}

func (w *WebRTCSender) send(ctx context.Context, msg models.DataChannelMsg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.lock.Lock()
	channel, open := w.channel, w.open
	w.lock.Unlock()
	if channel == nil || !open {
		return ErrNotConnected
	}

	encoded, err := encode(msg)
	if err != nil {
		return err
	}
	err = channel.SendText(encoded)
	if err != nil {
		return fmt.Errorf("failed sending on %s channel: %w", channel.Label(), err)
	}
	return nil
}

func (w *WebRTCSender) setOpen(open bool) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.open = open
}

func (w *WebRTCSender) onICEConnectionStateChange(connectionState webrtc.ICEConnectionState) {
	w.logger.Infof("connection state has changed: %s", connectionState.String())
	if connectionState == webrtc.ICEConnectionStateFailed || connectionState == webrtc.ICEConnectionStateDisconnected {
		w.setOpen(false)
	}
}

func (w *WebRTCSender) onDataChannel(d *webrtc.DataChannel) {
	w.logger.Infof("new data channel: %s", d.Label())

	switch d.Label() {
	case HudChannel:
		d.OnMessage(func(msg webrtc.DataChannelMessage) { w.onHudMessage(msg.Data) })
	default:
		w.logger.Warnf("vehicle opened unsupported channel: %s", d.Label())
	}
}

func (w *WebRTCSender) onHudMessage(data []byte) {
	hud := models.Hud{}
	err := json.Unmarshal(data, &hud)
	if err != nil {
		w.logger.Warnf("failed unmarshalling hud msg: %s", data)
		return
	}
	if w.onHud != nil {
		w.onHud(hud)
	}
}

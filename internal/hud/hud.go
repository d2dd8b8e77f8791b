package hud

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/drive"
	"github.com/Speshl/gorrc_drive/internal/models"
)

const (
	barWidth   = 21
	clearHome  = "\033[H\033[2J"
	lineEnding = "\r\n"
)

var (
	brakeColor  = color.New(color.FgRed, color.Bold)
	engageColor = color.New(color.FgGreen, color.Bold)
	recColor    = color.New(color.FgRed)
	barColor    = color.New(color.FgCyan)
	warnColor   = color.New(color.FgYellow)
)

// NetSource returns link counters for one interface
type NetSource func(iface string) (procfs.NetDevLine, error)

// Hud renders the driver's indicators to a terminal after every command
type Hud struct {
	lock   sync.Mutex
	cfg    config.HudConfig
	out    io.Writer
	logger *zap.SugaredLogger
	net    NetSource

	remote  []string
	warning string
}

func NewHud(cfg config.HudConfig, out io.Writer, logger *zap.SugaredLogger) *Hud {
	return &Hud{
		cfg:    cfg,
		out:    out,
		logger: logger,
		net:    ProcNetSource(logger),
	}
}

// WithNetSource swaps the link counter source
func (h *Hud) WithNetSource(net NetSource) *Hud {
	h.net = net
	return h
}

// ProcNetSource reads counters from /proc for this process' network namespace
func ProcNetSource(logger *zap.SugaredLogger) NetSource {
	p, err := procfs.Self()
	if err != nil {
		logger.Warnf("procfs could not get process, hud link stats disabled: %s", err)
		return nil
	}
	return func(iface string) (procfs.NetDevLine, error) {
		netDev, err := p.NetDev()
		if err != nil {
			return procfs.NetDevLine{}, fmt.Errorf("failed getting netstat: %w", err)
		}
		stats, ok := netDev[iface]
		if !ok {
			return procfs.NetDevLine{}, fmt.Errorf("failed getting %s stats: not found", iface)
		}
		return stats, nil
	}
}

// SetRemote replaces the lines pushed by the vehicle
func (h *Hud) SetRemote(hud models.Hud) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.remote = append([]string(nil), hud.Lines...)
}

// Warn shows msg until the next warning replaces it
func (h *Hud) Warn(msg string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.warning = msg
}

func (h *Hud) Render(cmd models.DriveCommand, state drive.State) {
	if !h.cfg.Enabled {
		return
	}

	lines := h.Lines(cmd, state)
	_, err := io.WriteString(h.out, clearHome+strings.Join(lines, lineEnding)+lineEnding)
	if err != nil {
		h.logger.Warnf("failed rendering hud: %s", err)
	}
}

// Lines builds the hud text for the last command sent and the control state
func (h *Hud) Lines(cmd models.DriveCommand, state drive.State) []string {
	h.lock.Lock()
	defer h.lock.Unlock()

	lines := make([]string, 0, 6+len(h.remote))
	lines = append(lines, fmt.Sprintf("Session:%s | Mode:%s | Drive:%s | Pilot:%s | Max:%.2f %s",
		shortSession(state),
		state.ControlMode,
		cmd.DriveMode,
		state.Pilot,
		state.MaxThrottle,
		state.ThrottleMode,
	))
	lines = append(lines, fmt.Sprintf("Steer    %s %5.2f", Bar(cmd.Angle), cmd.Angle))
	lines = append(lines, fmt.Sprintf("Throttle %s %5.2f", Bar(cmd.Throttle), cmd.Throttle))
	lines = append(lines, statusLine(cmd, state))

	if h.net != nil {
		netInfo, err := h.net(h.cfg.NetIface)
		if err != nil {
			lines = append(lines, warnColor.Sprintf("%s: %s", h.cfg.NetIface, err))
		} else {
			lines = append(lines, fmt.Sprintf("RxPkt:%d | RxErr:%d | RxDrop: %d | TxPkt:%d | TxErr:%d | TxDrop: %d",
				netInfo.RxPackets,
				netInfo.RxErrors,
				netInfo.RxDropped,
				netInfo.TxPackets,
				netInfo.TxErrors,
				netInfo.TxDropped,
			))
		}
	}

	if h.warning != "" {
		lines = append(lines, warnColor.Sprint(h.warning))
	}
	lines = append(lines, h.remote...)
	return lines
}

func statusLine(cmd models.DriveCommand, state drive.State) string {
	status := engageColor.Sprint("ENGAGED")
	if state.BrakeOn {
		status = brakeColor.Sprint("BRAKE")
	}

	rec := "   "
	if cmd.Recording {
		rec = recColor.Sprint("REC")
	}

	tilt := "tilt:n/a"
	if state.HasOrientation {
		tilt = "tilt:ok"
	}
	pad := "pad:n/a"
	if state.HasGamepad {
		pad = "pad:ok"
	}
	return fmt.Sprintf("%s %s | %s | %s", status, rec, tilt, pad)
}

// Bar draws value in [-1,1] as a bar growing left or right from a center mark
func Bar(value float64) string {
	value = drive.Clamp(value, -1, 1)
	center := barWidth / 2
	pos := center + int(math.Round(value*float64(center)))

	cells := make([]byte, barWidth)
	for i := range cells {
		switch {
		case i == center:
			cells[i] = '|'
		case (i > center && i <= pos) || (i < center && i >= pos):
			cells[i] = '#'
		default:
			cells[i] = ' '
		}
	}
	return "[" + barColor.Sprint(string(cells)) + "]"
}

func shortSession(state drive.State) string {
	session := state.Session.String()
	if len(session) > 8 {
		return session[:8]
	}
	return session
}

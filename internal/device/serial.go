package device

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

var (
	ErrNoDevice        = errors.New("no buzzer controller detected")
	ErrAmbiguousDevice = errors.New("multiple buzzer controllers detected")
)

// Arduino LLC and Arduino SRL USB vendor IDs.
var controllerVIDs = []string{"2341", "2A03"}

// PortInfo describes one serial port seen on the host.
type PortInfo struct {
	Name       string
	Product    string
	VID        string
	PID        string
	Controller bool
}

var listPorts = enumerator.GetDetailedPortsList

// Ports enumerates serial ports and marks the ones that look like a controller board.
func Ports() ([]PortInfo, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:       d.Name,
			Product:    d.Product,
			VID:        d.VID,
			PID:        d.PID,
			Controller: looksLikeController(d),
		})
	}
	return out, nil
}

// Discover resolves the controller port. An explicit port always wins.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	ports, err := Ports()
	if err != nil {
		return "", err
	}
	return pickController(ports)
}

func pickController(ports []PortInfo) (string, error) {
	var found []string
	for _, p := range ports {
		if p.Controller {
			found = append(found, p.Name)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w; set --port (e.g. COM3 or /dev/ttyUSB0)", ErrNoDevice)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %s; choose one with --port", ErrAmbiguousDevice, strings.Join(found, ", "))
	}
}

func looksLikeController(d *enumerator.PortDetails) bool {
	if strings.Contains(d.Product, "Arduino") || strings.Contains(d.Product, "Genuino") {
		return true
	}
	for _, vid := range controllerVIDs {
		if strings.EqualFold(d.VID, vid) {
			return true
		}
	}
	return false
}

// OpenSerial opens the controller port and wraps it in a Conn.
func OpenSerial(port string, baud int, log *zap.Logger) (*Conn, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	if log != nil {
		log.Info("connected to controller", zap.String("port", port), zap.Int("baud", baud))
	}
	return NewConn(p, log), nil
}

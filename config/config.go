package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Transport kinds.
const (
	TransportTCP     = "tcp"
	TransportUSB     = "usb"
	TransportSerial  = "serial"
	TransportSpooler = "spooler"
)

// DefaultPort is the raw ("JetDirect") printing port.
const DefaultPort = 9100

// Connection describes how to reach the printer.
type Connection struct {
	Transport   string `json:"transport"`
	Address     string `json:"address"`
	Port        int    `json:"port"`
	LPDQueue    string `json:"lpdQueue"`
	USBVendor   uint16 `json:"usbVendor"`
	USBProduct  uint16 `json:"usbProduct"`
	SerialPort  string `json:"serialPort"`
	BaudRate    int    `json:"baudRate"`
	SpoolerName string `json:"spoolerName"`
}

// Profile holds the printer's bit image limits, in dots.
type Profile struct {
	MaxDotWidth    int `json:"maxDotWidth"`
	ChunkDotHeight int `json:"chunkDotHeight"`
	ChunkOverlap   int `json:"chunkOverlap"`
}

// Settings is the full configuration of the image printing tool.
type Settings struct {
	Connection Connection `json:"connection"`
	Profile    Profile    `json:"profile"`
	Dither     bool       `json:"dither"`
	LogLevel   string     `json:"logLevel"`
	LogDir     string     `json:"logDir"`
}

// Default returns the settings used when nothing else is configured.
func Default() Settings {
	return Settings{
		Connection: Connection{
			Transport: TransportTCP,
			Port:      DefaultPort,
			LPDQueue:  "lp",
			BaudRate:  115200,
		},
		Profile: Profile{
			MaxDotWidth:    512,
			ChunkDotHeight: 256,
			ChunkOverlap:   2,
		},
		LogLevel: "info",
	}
}

// Load reads settings from a JSON file on top of the defaults. An empty path or
// a missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("config: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overrides settings from ESCPOS_* environment variables.
func (s *Settings) ApplyEnv() {
	c := &s.Connection
	c.Transport = envStr("ESCPOS_TRANSPORT", c.Transport)
	c.Address = envStr("ESCPOS_ADDRESS", c.Address)
	c.Port = envInt("ESCPOS_PORT", c.Port)
	c.LPDQueue = envStr("ESCPOS_LPD_QUEUE", c.LPDQueue)
	c.USBVendor = uint16(envInt("ESCPOS_USB_VENDOR", int(c.USBVendor)))
	c.USBProduct = uint16(envInt("ESCPOS_USB_PRODUCT", int(c.USBProduct)))
	c.SerialPort = envStr("ESCPOS_SERIAL_PORT", c.SerialPort)
	c.BaudRate = envInt("ESCPOS_BAUD_RATE", c.BaudRate)
	c.SpoolerName = envStr("ESCPOS_SPOOLER_NAME", c.SpoolerName)

	p := &s.Profile
	p.MaxDotWidth = envInt("ESCPOS_MAX_DOT_WIDTH", p.MaxDotWidth)
	p.ChunkDotHeight = envInt("ESCPOS_CHUNK_DOT_HEIGHT", p.ChunkDotHeight)
	p.ChunkOverlap = envInt("ESCPOS_CHUNK_OVERLAP", p.ChunkOverlap)

	if v := os.Getenv("ESCPOS_DITHER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Dither = b
		}
	}
	s.LogLevel = envStr("ESCPOS_LOG_LEVEL", s.LogLevel)
	s.LogDir = envStr("ESCPOS_LOG_DIR", s.LogDir)
}

// Validate checks the profile against the protocol limits and that the
// selected transport has what it needs.
func (s *Settings) Validate() error {
	p := s.Profile
	if p.MaxDotWidth <= 0 || p.MaxDotWidth%32 != 0 || p.MaxDotWidth/8 > 255 {
		return fmt.Errorf("config: maxDotWidth %d must be a multiple of 32 up to 2040", p.MaxDotWidth)
	}
	if p.ChunkDotHeight <= 0 || p.ChunkDotHeight%32 != 0 || p.ChunkDotHeight/8 > 255 {
		return fmt.Errorf("config: chunkDotHeight %d must be a multiple of 32 up to 2040", p.ChunkDotHeight)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkDotHeight {
		return fmt.Errorf("config: chunkOverlap %d must be in [0,%d)", p.ChunkOverlap, p.ChunkDotHeight)
	}

	c := s.Connection
	switch c.Transport {
	case TransportTCP:
		if c.Address == "" {
			return errors.New("config: tcp transport needs an address")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("config: port %d out of range", c.Port)
		}
	case TransportUSB:
		if c.USBVendor == 0 || c.USBProduct == 0 {
			return errors.New("config: usb transport needs usbVendor and usbProduct")
		}
	case TransportSerial:
		if c.SerialPort == "" {
			return errors.New("config: serial transport needs serialPort")
		}
		if c.BaudRate <= 0 {
			return fmt.Errorf("config: baudRate %d out of range", c.BaudRate)
		}
	case TransportSpooler:
		if c.SpoolerName == "" {
			return errors.New("config: spooler transport needs spoolerName")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt accepts decimal or 0x-prefixed values, which is how USB ids are usually written.
func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 0, 64); err == nil {
			return int(n)
		}
	}
	return fallback
}

package printer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/gousb"
)

// usbConn writes to the first bulk OUT endpoint of a USB printer class device.
type usbConn struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
}

// NewUSBPrinter opens the USB printer with the given vendor and product ids.
func NewUSBPrinter(vendorID, productID gousb.ID) (*Printer, error) {
	ctx := gousb.NewContext()
	conn := &usbConn{ctx: ctx}

	dev, err := ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: usb %s:%s: %w", ErrConnection, vendorID, productID, err)
	}
	if dev == nil {
		conn.Close()
		return nil, fmt.Errorf("%w: usb %s:%s: device not found", ErrConnection, vendorID, productID)
	}
	conn.dev = dev

	if err := dev.SetAutoDetach(true); err != nil {
		slog.Warn("usb auto detach unavailable", "err", err)
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		cfgNum = 1
	}
	conn.cfg, err = dev.Config(cfgNum)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: usb config %d: %w", ErrConnection, cfgNum, err)
	}

	conn.intf, err = conn.cfg.Interface(0, 0)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: usb interface: %w", ErrConnection, err)
	}

	epNum, err := bulkOutEndpoint(conn.intf.Setting)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	conn.out, err = conn.intf.OutEndpoint(epNum)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: usb endpoint %d: %w", ErrConnection, epNum, err)
	}
	slog.Info("connected to usb printer", "vendor", vendorID.String(), "product", productID.String(), "endpoint", epNum)

	return newPrinter(conn, "")
}

func bulkOutEndpoint(s gousb.InterfaceSetting) (int, error) {
	for _, ep := range s.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			return ep.Number, nil
		}
	}
	return 0, errors.New("usb: no bulk OUT endpoint")
}

func (u *usbConn) Write(p []byte) (int, error) {
	return u.out.Write(p)
}

func (u *usbConn) Close() error {
	if u.intf != nil {
		u.intf.Close()
	}
	var err error
	if u.cfg != nil {
		err = u.cfg.Close()
	}
	if u.dev != nil {
		if cerr := u.dev.Close(); err == nil {
			err = cerr
		}
	}
	if u.ctx != nil {
		if cerr := u.ctx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

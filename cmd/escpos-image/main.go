// Command escpos-image prints an image file on an ESC/POS thermal printer.
//
//	escpos-image -addr 192.168.1.50 -image logo.png -feed 3 -cut
//	escpos-image -image logo.png -preview out.png
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/AlexStarov/escpos-netimage/config"
	imgInternal "github.com/AlexStarov/escpos-netimage/image"
	logInternal "github.com/AlexStarov/escpos-netimage/log"
	"github.com/AlexStarov/escpos-netimage/printer"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("ESCPOS_CONFIG"), "JSON settings file")
		addr       = flag.String("addr", "", "printer IP address")
		port       = flag.Int("port", 0, "printer TCP port (515 submits through LPD)")
		transport  = flag.String("transport", "", "tcp, usb, serial or spooler")
		imagePath  = flag.String("image", "", "image file to print")
		feed       = flag.Int("feed", 3, "lines to feed after the image")
		cut        = flag.Bool("cut", false, "cut the paper after printing")
		dither     = flag.Bool("dither", false, "apply Floyd-Steinberg dithering")
		preview    = flag.String("preview", "", "write the printout to this PNG instead of printing")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error")
		logDir     = flag.String("log-dir", "", "directory for rotating log files")
	)
	flag.Parse()

	s, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	s.ApplyEnv()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			s.Connection.Address = *addr
		case "port":
			s.Connection.Port = *port
		case "transport":
			s.Connection.Transport = *transport
		case "dither":
			s.Dither = *dither
		case "log-level":
			s.LogLevel = *logLevel
		case "log-dir":
			s.LogDir = *logDir
		}
	})

	logger, closer, err := logInternal.New(logInternal.Options{Level: s.LogLevel, Dir: s.LogDir, Name: "escpos-image"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if *imagePath == "" {
		slog.Error("no image given, use -image")
		closer.Close()
		os.Exit(1)
	}

	if *preview != "" {
		err = writePreview(s, *imagePath, *preview)
	} else {
		err = printImage(s, *imagePath, *feed, *cut)
	}
	if err != nil {
		slog.Error("printing failed", "image", *imagePath, "err", err)
		closer.Close()
		os.Exit(1)
	}
	closer.Close()
}

func printImage(s config.Settings, path string, feed int, cut bool) error {
	p, err := printer.Open(s)
	if err != nil {
		return err
	}
	if err := p.PrintImage(path); err != nil {
		p.Close()
		return err
	}
	if feed > 0 {
		if err := p.Feed(feed); err != nil {
			p.Close()
			return err
		}
	}
	if cut {
		if err := p.Cut(); err != nil {
			p.Close()
			return err
		}
	}
	if err := p.Close(); err != nil {
		return err
	}
	slog.Info("image printed", "image", path)
	return nil
}

func writePreview(s config.Settings, path, out string) error {
	dec := &imgInternal.FileDecoder{MaxWidth: s.Profile.MaxDotWidth, Dither: s.Dither}
	img, err := dec.Decode(path)
	if err != nil {
		return err
	}

	conv := &imgInternal.Converter{
		MaxWidth:    s.Profile.MaxDotWidth,
		ChunkHeight: s.Profile.ChunkDotHeight,
		Overlap:     s.Profile.ChunkOverlap,
	}
	var pv imgInternal.Preview
	if err := conv.Print(img, &pv); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, &pv); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("preview written", "image", path, "out", out, "chunks", pv.Printed())
	return nil
}

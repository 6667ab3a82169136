// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3vm/pkg/console"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

const (
	exitOK        = 0
	exitError     = 1
	exitInterrupt = -2
)

type cli struct {
	Debug       bool     `help:"Runs the machine in a debug CLI."`
	Trace       bool     `help:"Logs every executed instruction to stderr."`
	StrictTraps bool     `name:"strict-traps" help:"Halts on unknown trap vectors instead of skipping them."`
	Start       string   `help:"Initial program counter (hex), defaults to the origin of the first image."`
	Images      []string `arg:"" optional:"" name:"image" help:"Program images, loaded in order." type:"path"`
}

func newLogger(trace bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	if trace {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// loadImages loads every image into mc, in order, and returns the origin of
// the first one.
func loadImages(mc *machine.Machine, images []string) (uint16, error) {
	var entry uint16

	for i, image := range images {
		file, err := os.Open(image)

		if err != nil {
			return 0, err
		}

		origin, err := mc.LoadImage(file)
		file.Close()

		if err != nil {
			return 0, fmt.Errorf("%s: %w", image, err)
		}

		if i == 0 {
			entry = origin
		}

		mc.Log.WithFields(logrus.Fields{
			"image":  image,
			"origin": fmt.Sprintf("%#04x", origin),
		}).Debug("Image loaded")
	}

	return entry, nil
}

func lc3vm(args []string, stdin *os.File, stdout io.Writer) int {
	var opts cli

	parser, err := kong.New(
		&opts,
		kong.Name("lc3vm"),
		kong.Description("Runs LC-3 program images."),
		kong.UsageOnError(),
	)

	if err != nil {
		panic(err)
	}

	if _, err := parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		return exitError
	}

	log := newLogger(opts.Trace)

	if len(opts.Images) == 0 {
		log.Error("lc3vm [image-file1] ...")
		return exitError
	}

	var start uint16

	if opts.Start != "" {
		if start, err = encoding.DecodeHex(opts.Start); err != nil {
			log.WithField("start", opts.Start).Error(err)
			return exitError
		}
	}

	con := console.New(stdin)
	devices := &machine.DeviceHandler{
		Keyboard: con,
		Display:  bufio.NewWriter(stdout),
	}

	mc := machine.New(devices)
	mc.Log = log
	mc.StrictTraps = opts.StrictTraps
	mc.Trace = opts.Trace

	origin, err := loadImages(mc, opts.Images)

	if err != nil {
		log.Error(err)
		return exitError
	}

	if opts.Start == "" {
		start = origin
	}

	mc.State.Registers.PC = start

	var sess *session

	if opts.Debug {
		sess = newSession(mc, con, opts.Images, start, stdout)
	}

	if err := con.EnterRaw(); err != nil {
		log.Error(err)
		return exitError
	}

	defer con.Restore()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			if sess != nil {
				fmt.Fprintln(stdout)
				sess.dbg.Break.Store(true)
				continue
			}

			con.Restore()
			fmt.Fprintln(stdout)
			os.Exit(exitInterrupt)
		}
	}()

	if sess != nil {
		sess.repl()
	}

	if err := mc.Run(); err != nil {
		con.Restore()
		log.Error(err)
		return exitError
	}

	return exitOK
}

func main() {
	os.Exit(lc3vm(os.Args[1:], os.Stdin, os.Stdout))
}

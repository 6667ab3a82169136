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


package machine

import (
	"bufio"
	"io"

	"github.com/sirupsen/logrus"
)

// Keyboard is the input side of the console. Ready must never block;
// ReadByte blocks until a key arrives.
type Keyboard interface {
	Ready() bool
	ReadByte() (byte, error)
}

type DeviceHandler struct {
	Keyboard Keyboard
	Display  *bufio.Writer
}

type MachineState struct {
	Registers Registers
	Memory    Memory
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger
	Log      logrus.FieldLogger

	// Unknown trap vectors halt the machine instead of being skipped
	StrictTraps bool

	// Every executed instruction is logged at debug level
	Trace bool

	halted bool
}

// readerKeyboard adapts a plain reader. Every byte already buffered or
// immediately available from the reader counts as a pressed key.
type readerKeyboard struct {
	reader *bufio.Reader
}

// NewKeyboard returns a Keyboard fed from r. Ready peeks at r, so r should
// not block when it has nothing to deliver (files, buffers, closed pipes).
func NewKeyboard(r io.Reader) Keyboard {
	return &readerKeyboard{reader: bufio.NewReader(r)}
}

func (kb *readerKeyboard) Ready() bool {
	if kb.reader.Buffered() > 0 {
		return true
	}

	_, err := kb.reader.Peek(1)
	return err == nil
}

func (kb *readerKeyboard) ReadByte() (byte, error) {
	return kb.reader.ReadByte()
}

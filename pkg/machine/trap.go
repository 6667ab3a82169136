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
	"fmt"

	"github.com/sirupsen/logrus"
)

// trap runs the system routine selected by vector. R7 already holds the
// return address; control returns to it once the routine finishes.
func (mc *Machine) trap(vector uint16) error {
	reg := &mc.State.Registers

	switch vector {
	case TRAP_GETC:
		key, err := mc.readKey()

		if err != nil {
			return &TrapError{Vector: vector, Err: err}
		}

		reg.R[0] = uint16(key)
		reg.SetFlags(0)

	case TRAP_OUT:
		if err := mc.display(vector, byte(reg.R[0])); err != nil {
			return err
		}

	case TRAP_PUTS:
		var output []byte

		for _, c := range mc.stringAt(reg.R[0]) {
			output = append(output, byte(c))
		}

		if err := mc.display(vector, output...); err != nil {
			return err
		}

	case TRAP_IN:
		if err := mc.display(vector, []byte(IN_PROMPT)...); err != nil {
			return err
		}

		key, err := mc.readKey()

		if err != nil {
			return &TrapError{Vector: vector, Err: err}
		}

		if err := mc.display(vector, key); err != nil {
			return err
		}

		reg.R[0] = uint16(key)
		reg.SetFlags(0)

	case TRAP_PUTSP:
		var output []byte

		for _, c := range mc.stringAt(reg.R[0]) {
			output = append(output, byte(c))

			if high := byte(c >> 8); high != 0 {
				output = append(output, high)
			}
		}

		if err := mc.display(vector, output...); err != nil {
			return err
		}

	case TRAP_HALT:
		mc.halted = true

		if mc.Devices != nil && mc.Devices.Display != nil {
			return mc.display(vector, []byte(HALT_MESSAGE)...)
		}

	default:
		if mc.StrictTraps {
			return &TrapError{Vector: vector, Err: ErrUnknownTrap}
		}

		mc.logger().WithFields(logrus.Fields{
			"pc":     fmt.Sprintf("%#04x", reg.PC-1),
			"vector": fmt.Sprintf("%#02x", vector),
		}).Warn("Unknown trap vector ignored")
	}

	return nil
}

// stringAt returns the words from addr up to, not including, the first zero
// word. Strings are read from plain storage, never polling the keyboard, and
// end after one pass over memory if unterminated.
func (mc *Machine) stringAt(addr uint16) []uint16 {
	var words []uint16

	for i := 0; i < MEMORY_SIZE; i++ {
		c := mc.State.Memory.Storage[addr]

		if c == 0 {
			break
		}

		words = append(words, c)
		addr++
	}

	return words
}

func (mc *Machine) readKey() (byte, error) {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return 0, ErrNoKeyboard
	}

	return mc.Devices.Keyboard.ReadByte()
}

// display writes output and flushes so the console sees it immediately.
func (mc *Machine) display(vector uint16, output ...byte) error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return &TrapError{Vector: vector, Err: ErrNoDisplay}
	}

	if _, err := mc.Devices.Display.Write(output); err != nil {
		return &TrapError{Vector: vector, Err: err}
	}

	if err := mc.Devices.Display.Flush(); err != nil {
		return &TrapError{Vector: vector, Err: err}
	}

	return nil
}

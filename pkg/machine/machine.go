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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

func New(devices *DeviceHandler) *Machine {
	mc := &Machine{
		Devices: devices,
		Log:     logrus.StandardLogger(),
	}

	mc.State.Reset()

	if devices != nil {
		mc.State.Memory.Keyboard = devices.Keyboard
	}

	return mc
}

func (mc *MachineState) Reset() {
	mc.Registers.Reset()
	mc.Memory.Reset()
}

// LoadImage copies a program image into memory. The image is a big-endian
// origin word followed by big-endian words placed from origin upwards.
// Words that would land past the end of memory are dropped.
func (mc *Machine) LoadImage(reader io.Reader) (uint16, error) {
	input := bufio.NewReader(reader)
	scratch := make([]byte, 2)

	if _, err := io.ReadFull(input, scratch); err == io.EOF ||
		err == io.ErrUnexpectedEOF {
		return 0, ErrImageTooShort
	} else if err != nil {
		return 0, err
	}

	origin := binary.BigEndian.Uint16(scratch)

	for index := int(origin); ; index++ {
		_, err := io.ReadFull(input, scratch)

		if err == io.EOF {
			return origin, nil
		} else if err == io.ErrUnexpectedEOF {
			return origin, ErrImageTruncated
		} else if err != nil {
			return origin, err
		}

		if index >= MEMORY_SIZE {
			mc.logger().WithField(
				"origin", fmt.Sprintf("%#04x", origin),
			).Warn("Image runs past the end of memory, truncated")
			return origin, nil
		}

		mc.State.Memory.Storage[index] = binary.BigEndian.Uint16(scratch)
	}
}

func (mc *Machine) Halted() bool {
	return mc.halted
}

func (mc *Machine) Halt() {
	mc.halted = true
}

// Resume clears the halted state so execution may continue, e.g. after the
// program counter was moved by hand.
func (mc *Machine) Resume() {
	mc.halted = false
}

// Run steps the machine until it halts. A HALT trap ends the run with a nil
// error; anything fatal is returned as an *ExecError.
func (mc *Machine) Run() error {
	for !mc.halted {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

func (mc *Machine) logger() logrus.FieldLogger {
	if mc.Log == nil {
		return logrus.StandardLogger()
	}

	return mc.Log
}

func (mc *Machine) read(addr uint16) uint16 {
	value := mc.State.Memory.Read(addr)

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return value
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory.Write(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// Step executes a single instruction. Instructions that cannot be decoded
// halt the machine before any state changes, leaving PC on the bad word.
func (mc *Machine) Step() error {
	if mc.halted {
		return ErrHalted
	}

	reg := &mc.State.Registers
	addr := reg.PC
	word := mc.read(addr)

	instruction, err := Decode(word)

	if err != nil {
		mc.halted = true
		return &ExecError{Addr: addr, Err: err}
	}

	if mc.Trace {
		mc.logger().WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("%#04x", addr),
			"word": fmt.Sprintf("%#04x", word),
		}).Debug(instruction)
	}

	reg.PC++

	if err := mc.execute(instruction); err != nil {
		mc.halted = true
		return &ExecError{Addr: addr, Err: err}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

func (mc *Machine) execute(instruction Instruction) error {
	reg := &mc.State.Registers

	switch in := instruction.(type) {
	case Add:
		if in.Immediate {
			reg.R[in.Dest] = reg.R[in.Src1] + in.Imm5
		} else {
			reg.R[in.Dest] = reg.R[in.Src1] + reg.R[in.Src2]
		}

		reg.SetFlags(in.Dest)

	case And:
		if in.Immediate {
			reg.R[in.Dest] = reg.R[in.Src1] & in.Imm5
		} else {
			reg.R[in.Dest] = reg.R[in.Src1] & reg.R[in.Src2]
		}

		reg.SetFlags(in.Dest)

	case Not:
		reg.R[in.Dest] = ^reg.R[in.Src]

		reg.SetFlags(in.Dest)

	case Branch:
		if in.Cond&reg.Cond != 0 {
			reg.PC += in.PCOffset9
		}

	case Jump:
		reg.PC = reg.R[in.Base]

	case JumpSubroutine:
		// Base is read first so JSRR R7 jumps to the old R7
		target := reg.R[in.Base]

		reg.R[R7] = reg.PC

		if in.Long {
			reg.PC += in.PCOffset11
		} else {
			reg.PC = target
		}

	case Load:
		reg.R[in.Dest] = mc.read(reg.PC + in.PCOffset9)

		reg.SetFlags(in.Dest)

	case LoadIndirect:
		reg.R[in.Dest] = mc.read(mc.read(reg.PC + in.PCOffset9))

		reg.SetFlags(in.Dest)

	case LoadRegister:
		reg.R[in.Dest] = mc.read(reg.R[in.Base] + in.Offset6)

		reg.SetFlags(in.Dest)

	case LoadEffectiveAddress:
		reg.R[in.Dest] = reg.PC + in.PCOffset9

		reg.SetFlags(in.Dest)

	case Store:
		mc.write(reg.PC+in.PCOffset9, reg.R[in.Src])

	case StoreIndirect:
		mc.write(mc.read(reg.PC+in.PCOffset9), reg.R[in.Src])

	case StoreRegister:
		mc.write(reg.R[in.Base]+in.Offset6, reg.R[in.Src])

	case Trap:
		reg.R[R7] = reg.PC

		return mc.trap(in.Vector)

	default:
		return errors.New(f("unhandled instruction %v", instruction))
	}

	return nil
}

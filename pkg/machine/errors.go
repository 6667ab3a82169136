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
	"errors"

	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

var (
	ErrReservedOpcode = errors.New(f("reserved opcode"))
	ErrUnknownTrap    = errors.New(f("unknown trap vector"))
	ErrHalted         = errors.New(f("machine halted"))
	ErrNoKeyboard     = errors.New(f("no keyboard attached"))
	ErrNoDisplay      = errors.New(f("no display attached"))

	// Image loading errors
	ErrImageTooShort  = errors.New(f("image has no origin"))
	ErrImageTruncated = errors.New(f("image ends in the middle of a word"))
)

// DecodeError reports an instruction word that has no defined behavior.
type DecodeError struct {
	Word   uint16
	Opcode Opcode
}

func (err *DecodeError) Error() string {
	return f("bad instruction %#04x (%v)", err.Word, err.Opcode)
}

func (err *DecodeError) Unwrap() error {
	return ErrReservedOpcode
}

// TrapError reports a trap routine that could not complete.
type TrapError struct {
	Vector uint16
	Err    error
}

func (err *TrapError) Error() string {
	if name, ok := trapNames[err.Vector]; ok {
		return f("trap %v: %v", name, err.Err)
	}

	return f("trap %#02x: %v", err.Vector, err.Err)
}

func (err *TrapError) Unwrap() error {
	return err.Err
}

// ExecError locates a fatal error at the address of the faulting instruction.
type ExecError struct {
	Addr uint16
	Err  error
}

func (err *ExecError) Error() string {
	return f("%#04x: %v", err.Addr, err.Err)
}

func (err *ExecError) Unwrap() error {
	return err.Err
}

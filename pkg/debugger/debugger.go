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


package debugger

import (
	"errors"
	"fmt"
	"io"

	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

var (
	ErrBreakpointExists = errors.New(f("Breakpoint already set"))
	ErrWatchpointExists = errors.New(f("Watchpoint already set"))
	ErrInvalidIndex     = errors.New(f("Invalid index"))
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	if dbg.HasBreakpoint(mc.State.Registers.PC) {
		dbg.HandleBreak(dbg, mc)
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead != nil && dbg.watching(addr, ReadWatch) {
		dbg.HandleRead(addr, dbg, mc)
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite != nil && dbg.watching(addr, WriteWatch) {
		dbg.HandleWrite(addr, dbg, mc)
	}
}

func (dbg *Debugger) watching(addr uint16, access WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr != addr {
			continue
		}

		if watchpoint.Type == access || watchpoint.Type == ReadWriteWatch {
			return true
		}
	}

	return false
}

func (dbg *Debugger) HasBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return true
		}
	}

	return false
}

func (dbg *Debugger) AddBreakpoint(addr uint16) error {
	if dbg.HasBreakpoint(addr) {
		return ErrBreakpointExists
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{Addr: addr})
	return nil
}

// RemoveBreakpoint drops breakpoint i, moving the last breakpoint into its
// slot.
func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return ErrInvalidIndex
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
	return nil
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) error {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return ErrWatchpointExists
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return nil
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return ErrInvalidIndex
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
	return nil
}

// PrintMem dumps count words starting at addr, four to a row. Pass the
// machine's plain Storage so that dumping does not poll devices.
func PrintMem(w io.Writer, mem machine.AddressSpace, addr, count uint16) {
	for i := uint16(0); i < count; i++ {
		if i == 0 {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", addr+i)
		} else if i%4 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", addr+i)
		}

		result := mem.Read(addr + i)

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%#04x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%#04x ", result)
		}
	}

	fmt.Fprintln(w)
}

func PrintRegisters(w io.Writer, reg *machine.Registers) {
	for i, register := range reg.R {
		fmt.Fprintf(w, "\033[1mR%d:\033[0m %#04x\t", i, register)
		if i == (len(reg.R)-1)/2 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(
		w,
		"\033[1mPC:\033[0m %#04x\t\033[1mCC:\033[0m %s\n",
		reg.PC,
		machine.CondString(reg.Cond),
	)
}

// PrintDisasm lists count instructions from addr, marking the one at pc
// and any with a breakpoint.
func (dbg *Debugger) PrintDisasm(
	w io.Writer, mem machine.AddressSpace, addr, count, pc uint16,
) {
	for i := uint16(0); i < count; i++ {
		at := addr + i
		word := mem.Read(at)

		marker := "  "
		if at == pc {
			marker = "=>"
		}

		if dbg.HasBreakpoint(at) {
			marker = "\033[31m*\033[0m" + marker[1:]
		}

		fmt.Fprintf(
			w,
			"%s \033[1m[%#04x]\033[0m %#04x  %s\n",
			marker,
			at,
			word,
			machine.Disassemble(word),
		)
	}
}

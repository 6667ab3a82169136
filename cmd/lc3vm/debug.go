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
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lassandro/lc3vm/pkg/console"
	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

// session is an interactive debugger attached to a running machine.
type session struct {
	dbg *debugger.Debugger
	mc  *machine.Machine
	con *console.Console

	images []string
	start  uint16

	out     io.Writer
	lastcmd []string
	quit    bool
}

func newSession(
	mc *machine.Machine,
	con *console.Console,
	images []string,
	start uint16,
	out io.Writer,
) *session {
	sess := &session{
		dbg:    &debugger.Debugger{},
		mc:     mc,
		con:    con,
		images: images,
		start:  start,
		out:    out,
	}

	sess.dbg.HandleBreak = sess.handleBreak
	sess.dbg.HandleRead = sess.handleRead
	sess.dbg.HandleWrite = sess.handleWrite
	mc.Debugger = sess.dbg

	return sess
}

func (sess *session) println(a ...any) {
	fmt.Fprintln(sess.out, a...)
}

func (sess *session) printf(format string, a ...any) {
	fmt.Fprintf(sess.out, format, a...)
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x%s\n", int64(digits)+1, suffix)
}

func (sess *session) debugBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####]"

		if len(args) != 1 {
			sess.println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			sess.println(err)
			return
		}

		if err := sess.dbg.AddBreakpoint(addr); err == nil {
			sess.printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(sess.dbg.Breakpoints), "")

		for i, breakpoint := range sess.dbg.Breakpoints {
			sess.printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			sess.println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			sess.println(err)
			return
		}

		if err := sess.dbg.RemoveBreakpoint(i); err != nil {
			sess.println(err)
			return
		}

		sess.printf("Breakpoint removed [%d]\n", i)

	case "clear":
		sess.dbg.Breakpoints = nil
		sess.println("Breakpoints reset")

	default:
		sess.printf("break: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func (sess *session) debugWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			sess.println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			sess.println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			sess.println(usage)
			return
		}

		if err := sess.dbg.AddWatchpoint(addr, wtype); err == nil {
			sess.printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(sess.dbg.Watchpoints), " %s")

		for i, watchpoint := range sess.dbg.Watchpoints {
			sess.printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			sess.println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			sess.println(err)
			return
		}

		if err := sess.dbg.RemoveWatchpoint(i); err != nil {
			sess.println(err)
			return
		}

		sess.printf("Watchpoint removed [%d]\n", i)

	case "clear":
		sess.dbg.Watchpoints = nil
		sess.println("Watchpoints reset")

	default:
		sess.printf("watch: '%s' is not a valid command\n%s\n", cmd, usage)
	}
}

func (sess *session) debugReg(args []string) {
	const usage = "register [R#|PC|CC] [value]"

	reg := &sess.mc.State.Registers

	if len(args) == 0 {
		debugger.PrintRegisters(sess.out, reg)
		return
	}

	if len(args) != 2 {
		sess.println(usage)
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		sess.println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7':
		reg.R[name[1]-'0'] = value
	case name == "PC":
		reg.PC = value
	case name == "CC":
		// Keep exactly one condition flag set
		switch value {
		case machine.FLAG_POS, machine.FLAG_ZERO, machine.FLAG_NEG:
			reg.Cond = value
		default:
			sess.println("CC must be 0x1 (p), 0x2 (z) or 0x4 (n)")
			return
		}
	default:
		sess.println("Invalid register")
		return
	}

	sess.printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

// parseRange reads the optional [addr|count] [count] pair shared by the
// memory and disasm commands.
func (sess *session) parseRange(
	args []string, size uint16,
) (uint16, uint16, bool) {
	addr := sess.mc.State.Registers.PC

	if len(args) > 0 {
		if value, err := encoding.DecodeHex(args[0]); err == nil {
			addr = value
		} else {
			count, err := strconv.ParseUint(args[0], 10, 16)

			if err != nil {
				sess.println(err)
				return 0, 0, false
			}

			size = uint16(count)
		}
	}

	if len(args) > 1 {
		count, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			sess.println(err)
			return 0, 0, false
		}

		size = uint16(count)
	}

	return addr, size, true
}

func (sess *session) debugMemory(args []string) {
	const usage = "memory [0x####|#] [#]"

	if len(args) > 2 {
		sess.println(usage)
		return
	}

	if addr, size, ok := sess.parseRange(args, 1); ok {
		debugger.PrintMem(sess.out, &sess.mc.State.Memory.Storage, addr, size)
	}
}

func (sess *session) debugDisasm(args []string) {
	const usage = "disasm [0x####|#] [#]"

	if len(args) > 2 {
		sess.println(usage)
		return
	}

	if addr, size, ok := sess.parseRange(args, 8); ok {
		sess.dbg.PrintDisasm(
			sess.out,
			&sess.mc.State.Memory.Storage,
			addr,
			size,
			sess.mc.State.Registers.PC,
		)
	}
}

func (sess *session) debugSet(args []string) {
	const usage = "set [0x####] [value]"

	if len(args) != 2 {
		sess.println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		sess.println(err)
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		sess.println(err)
		return
	}

	sess.mc.State.Memory.Storage[addr] = value
	debugger.PrintMem(sess.out, &sess.mc.State.Memory.Storage, addr, 1)
}

func (sess *session) debugJump(args []string) {
	const usage = "jump [0x####]"

	if len(args) != 1 {
		sess.println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		sess.println(err)
		return
	}

	sess.mc.State.Registers.PC = addr
	sess.mc.Resume()
	sess.printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func (sess *session) debugReset() {
	sess.mc.State.Reset()

	if _, err := loadImages(sess.mc, sess.images); err != nil {
		sess.println(err)
		return
	}

	sess.mc.State.Registers.PC = sess.start
	sess.mc.Resume()
	sess.println("Machine reset")
}

func (sess *session) repl() {
	sess.con.Restore()
	defer sess.con.EnterRaw()

	for !sess.quit {
		sess.printf("\033[1;30m(dbg)\033[0m ")

		line, err := sess.con.ReadLine()

		if err != nil {
			sess.println()
			sess.stop()
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(sess.lastcmd) == 0 {
				continue
			}
			args = sess.lastcmd
		} else {
			sess.lastcmd = make([]string, len(args))
			copy(sess.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			sess.debugBreak(args)

		case "w", "wp", "watch", "watchpoint":
			sess.debugWatch(args)

		case "r", "reg", "register", "registers":
			sess.debugReg(args)

		case "m", "mem", "memory":
			sess.debugMemory(args)

		case "d", "dis", "disasm":
			sess.debugDisasm(args)

		case "j", "jmp", "jump":
			sess.debugJump(args)

		case "set":
			sess.debugSet(args)

		case "c", "continue":
			sess.dbg.Break.Store(false)
			return

		case "n", "next":
			sess.dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			sess.stop()
			return

		case "clear":
			sess.printf("\033[H\033[2J")

		case "reset":
			sess.debugReset()

		default:
			sess.printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (sess *session) stop() {
	sess.quit = true
	sess.dbg.Break.Store(false)
	sess.mc.Halt()
}

func (sess *session) stopped() {
	sess.println()
	sess.println("Program stopped")
}

func (sess *session) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if sess.quit || mc.Halted() {
		return
	}

	if !dbg.Break.Load() {
		sess.stopped()
		dbg.PrintDisasm(
			sess.out, &mc.State.Memory.Storage,
			mc.State.Registers.PC, 8, mc.State.Registers.PC,
		)
	}

	sess.repl()
}

func (sess *session) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if sess.quit {
		return
	}

	sess.stopped()
	debugger.PrintMem(sess.out, &mc.State.Memory.Storage, addr, 1)
	sess.repl()
}

func (sess *session) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if sess.quit {
		return
	}

	sess.stopped()
	debugger.PrintMem(sess.out, &mc.State.Memory.Storage, addr, 1)
	sess.repl()
}


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


// Package console drives the host terminal: raw mode for the VM's character
// I/O and non-blocking key polling for the keyboard status register.
package console

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is the terminal shared by the machine's keyboard and the
// debugger's command line. Both read through the same buffer so neither
// swallows input meant for the other.
type Console struct {
	file   *os.File
	reader *bufio.Reader

	mu      sync.Mutex
	restore unix.Termios
	raw     bool
}

func New(file *os.File) *Console {
	return &Console{
		file:   file,
		reader: bufio.NewReader(file),
	}
}

func (con *Console) IsTerminal() bool {
	return term.IsTerminal(int(con.file.Fd()))
}

// EnterRaw switches off line buffering and echo so every key reaches the
// machine as soon as it is typed. Files and pipes are left alone.
func (con *Console) EnterRaw() error {
	con.mu.Lock()
	defer con.mu.Unlock()

	if con.raw || !con.IsTerminal() {
		return nil
	}

	if err := termios.Tcgetattr(con.file.Fd(), &con.restore); err != nil {
		return err
	}

	termstate := con.restore

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	if err := termios.Tcsetattr(
		con.file.Fd(), termios.TCSANOW, &termstate,
	); err != nil {
		return err
	}

	con.raw = true
	return nil
}

// Restore puts back the terminal settings saved by EnterRaw. It may be
// called from a signal handler while the machine is running.
func (con *Console) Restore() error {
	con.mu.Lock()
	defer con.mu.Unlock()

	if !con.raw {
		return nil
	}

	if err := termios.Tcsetattr(
		con.file.Fd(), termios.TCSANOW, &con.restore,
	); err != nil {
		return err
	}

	con.raw = false
	return nil
}

func (con *Console) Raw() bool {
	con.mu.Lock()
	defer con.mu.Unlock()

	return con.raw
}

// Ready reports whether a read would return without blocking.
func (con *Console) Ready() bool {
	if con.reader.Buffered() > 0 {
		return true
	}

	fd := int(con.file.Fd())

	var readfds unix.FdSet
	readfds.Set(fd)

	timeout := unix.Timeval{Sec: 0, Usec: 0}

	n, err := unix.Select(fd+1, &readfds, nil, nil, &timeout)
	if err != nil {
		return false
	}

	return n > 0
}

func (con *Console) ReadByte() (byte, error) {
	return con.reader.ReadByte()
}

// ReadLine reads one line of input without its line ending. Anything typed
// after the line stays buffered for the keyboard.
func (con *Console) ReadLine() (string, error) {
	line, err := con.reader.ReadString('\n')

	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

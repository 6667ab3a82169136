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

// AddressSpace is the word addressed view the processor has of memory.
type AddressSpace interface {
	Read(addr uint16) uint16
	Write(addr uint16, value uint16)
}

var (
	_ AddressSpace = (*Storage)(nil)
	_ AddressSpace = (*Memory)(nil)
)

// Storage is plain RAM covering the whole address space.
type Storage [MEMORY_SIZE]uint16

func (s *Storage) Read(addr uint16) uint16 {
	return s[addr]
}

func (s *Storage) Write(addr uint16, value uint16) {
	s[addr] = value
}

// Memory is Storage with the keyboard registers mapped in. Reading KBSR
// polls the keyboard and refreshes KBSR and KBDR before the value is
// returned; everything else passes straight through to Storage.
type Memory struct {
	Storage  Storage
	Keyboard Keyboard
}

func (mem *Memory) Reset() {
	for i := range mem.Storage {
		mem.Storage[i] = 0x0000
	}
}

func (mem *Memory) Read(addr uint16) uint16 {
	if addr == DEV_KBSR {
		mem.pollKeyboard()
	}

	return mem.Storage.Read(addr)
}

func (mem *Memory) Write(addr uint16, value uint16) {
	mem.Storage.Write(addr, value)
}

func (mem *Memory) pollKeyboard() {
	if mem.Keyboard != nil && mem.Keyboard.Ready() {
		if key, err := mem.Keyboard.ReadByte(); err == nil {
			mem.Storage[DEV_KBSR] = KBSR_READY
			mem.Storage[DEV_KBDR] = uint16(key)
			return
		}
	}

	mem.Storage[DEV_KBSR] = 0
}

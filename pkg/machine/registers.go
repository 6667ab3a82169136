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

const R7 = 7

// Registers holds the general purpose registers R0-R7, the program counter
// and the condition codes. Cond always has exactly one of FLAG_POS,
// FLAG_ZERO or FLAG_NEG set.
type Registers struct {
	R    [8]uint16
	PC   uint16
	Cond uint16
}

func (reg *Registers) Reset() {
	for i := range reg.R {
		reg.R[i] = 0x0000
	}

	reg.PC = MEMSPACE_USER
	reg.Cond = FLAG_ZERO
}

// SetFlags sets the condition codes from the signed value in register r.
func (reg *Registers) SetFlags(r uint16) {
	value := reg.R[r&0x7]

	if value == 0 {
		reg.Cond = FLAG_ZERO
	} else if value>>15 == 1 {
		reg.Cond = FLAG_NEG
	} else {
		reg.Cond = FLAG_POS
	}
}

// CondString renders the condition codes the way BR spells them.
func CondString(cond uint16) string {
	var result string

	if cond&FLAG_NEG != 0 {
		result += "n"
	}

	if cond&FLAG_ZERO != 0 {
		result += "z"
	}

	if cond&FLAG_POS != 0 {
		result += "p"
	}

	return result
}

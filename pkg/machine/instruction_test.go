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


package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/machine"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		word uint16
		want machine.Instruction
		text string
	}{
		{
			0b0001_000_001_000_010,
			machine.Add{Dest: 0, Src1: 1, Src2: 2},
			"ADD R0, R1, R2",
		},
		{
			0b0001_011_011_1_11111,
			machine.Add{Dest: 3, Src1: 3, Immediate: true, Imm5: 0xFFFF},
			"ADD R3, R3, #-1",
		},
		{
			0b0101_010_010_1_00000,
			machine.And{Dest: 2, Src1: 2, Immediate: true},
			"AND R2, R2, #0",
		},
		{
			0b1001_100_011_1_11111,
			machine.Not{Dest: 4, Src: 3},
			"NOT R4, R3",
		},
		{
			0b0000_011_111111101,
			machine.Branch{Cond: 0b011, PCOffset9: 0xFFFD},
			"BRzp #-3",
		},
		{
			0b0000_000_000000100,
			machine.Branch{PCOffset9: 4},
			"NOP #4",
		},
		{
			0b1100_000_010_000000,
			machine.Jump{Base: 2},
			"JMP R2",
		},
		{
			0b1100_000_111_000000,
			machine.Jump{Base: 7},
			"RET",
		},
		{
			0b0100_1_10000000000,
			machine.JumpSubroutine{Long: true, PCOffset11: 0xFC00},
			"JSR #-1024",
		},
		{
			0b0100_0_00_101_000000,
			machine.JumpSubroutine{Base: 5},
			"JSRR R5",
		},
		{
			0b0010_001_011111111,
			machine.Load{Dest: 1, PCOffset9: 0x00FF},
			"LD R1, #255",
		},
		{
			0b1010_010_100000000,
			machine.LoadIndirect{Dest: 2, PCOffset9: 0xFF00},
			"LDI R2, #-256",
		},
		{
			0b0110_011_100_100000,
			machine.LoadRegister{Dest: 3, Base: 4, Offset6: 0xFFE0},
			"LDR R3, R4, #-32",
		},
		{
			0b1110_101_000000001,
			machine.LoadEffectiveAddress{Dest: 5, PCOffset9: 1},
			"LEA R5, #1",
		},
		{
			0b0011_110_000000010,
			machine.Store{Src: 6, PCOffset9: 2},
			"ST R6, #2",
		},
		{
			0b1011_111_111111111,
			machine.StoreIndirect{Src: 7, PCOffset9: 0xFFFF},
			"STI R7, #-1",
		},
		{
			0b0111_000_001_011111,
			machine.StoreRegister{Src: 0, Base: 1, Offset6: 31},
			"STR R0, R1, #31",
		},
		{0xF025, machine.Trap{Vector: 0x25}, "HALT"},
		{0xF022, machine.Trap{Vector: 0x22}, "PUTS"},
		{0xF0FE, machine.Trap{Vector: 0xFE}, "TRAP xFE"},
	}

	for _, entry := range table {
		have, err := machine.Decode(entry.word)

		require.NoError(t, err, entry.text)
		assert.Equal(entry.want, have, entry.text)
		assert.Equal(entry.text, have.String())
		assert.Equal(entry.text, machine.Disassemble(entry.word))
		assert.Equal(machine.Opcode(entry.word>>12), have.Opcode(), entry.text)
	}
}

func TestDecodeReserved(t *testing.T) {
	for _, op := range []machine.Opcode{machine.OP_RTI, machine.OP_RES} {
		word := uint16(op)<<12 | 0x0ABC

		instruction, err := machine.Decode(word)

		assert.Nil(t, instruction)
		assert.ErrorIs(t, err, machine.ErrReservedOpcode)
		assert.Equal(t, ".FILL x"+map[machine.Opcode]string{
			machine.OP_RTI: "8ABC",
			machine.OP_RES: "DABC",
		}[op], machine.Disassemble(word))
	}
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "BR", machine.OP_BR.String())
	assert.Equal(t, "LDI", machine.OP_LDI.String())
	assert.Equal(t, "TRAP", machine.OP_TRAP.String())
	assert.Equal(t, "RES", machine.OP_RES.String())
}

func TestSetFlags(t *testing.T) {
	var reg machine.Registers

	for value, want := range map[uint16]uint16{
		0x0000: machine.FLAG_ZERO,
		0x0001: machine.FLAG_POS,
		0x7FFF: machine.FLAG_POS,
		0x8000: machine.FLAG_NEG,
		0xFFFF: machine.FLAG_NEG,
	} {
		reg.R[3] = value
		reg.SetFlags(3)
		assert.Equal(t, want, reg.Cond, "value %#04x", value)
	}

	assert.Equal(t, "nzp", machine.CondString(0b111))
	assert.Equal(t, "n", machine.CondString(machine.FLAG_NEG))
}

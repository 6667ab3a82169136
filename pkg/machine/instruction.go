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

	"github.com/lassandro/lc3vm/pkg/encoding"
)

// Instruction is a decoded instruction word. The set of implementations is
// closed: one type per executable opcode.
type Instruction interface {
	Opcode() Opcode
	String() string

	instruction()
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Add struct {
	Dest, Src1, Src2 uint16
	Immediate        bool
	Imm5             uint16
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type And struct {
	Dest, Src1, Src2 uint16
	Immediate        bool
	Imm5             uint16
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Not struct {
	Dest, Src uint16
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Branch struct {
	Cond      uint16
	PCOffset9 uint16
}

// JMP  |1100    |000  |BaseR|000000      | Jump
// RET  |1100    |000  |111  |000000      | Return
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Jump struct {
	Base uint16
}

// JSR  |0100    |1|PCoffset11            | Jump to subroutine
// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type JumpSubroutine struct {
	Long       bool
	PCOffset11 uint16
	Base       uint16
}

// LD   |0010    |DR   |PCoffset9         | Load
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Load struct {
	Dest      uint16
	PCOffset9 uint16
}

// LDI  |1010    |DR   |PCoffset9         | Load indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type LoadIndirect struct {
	Dest      uint16
	PCOffset9 uint16
}

// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type LoadRegister struct {
	Dest, Base uint16
	Offset6    uint16
}

// LEA  |1110    |DR   |PCoffset9         | Load effective address
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type LoadEffectiveAddress struct {
	Dest      uint16
	PCOffset9 uint16
}

// ST   |0011    |SR   |PCoffset9         | Store
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Store struct {
	Src       uint16
	PCOffset9 uint16
}

// STI  |1011    |SR   |PCoffset9         | Store indirect
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type StoreIndirect struct {
	Src       uint16
	PCOffset9 uint16
}

// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type StoreRegister struct {
	Src, Base uint16
	Offset6   uint16
}

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Trap struct {
	Vector uint16
}

// Decode splits an instruction word into its opcode and operands. Offsets and
// immediates are sign extended here, so executing an Instruction never looks
// at the raw word again. RTI and the reserved opcode are not executable.
func Decode(instruction uint16) (Instruction, error) {
	opcode := Opcode(instruction >> 12)
	reg9 := (instruction >> 9) & 0x7
	reg6 := (instruction >> 6) & 0x7
	pcoffset9 := encoding.SignExtend(instruction&0x1FF, 9)
	offset6 := encoding.SignExtend(instruction&0x3F, 6)

	switch opcode {
	case OP_ADD:
		in := Add{Dest: reg9, Src1: reg6}

		if (instruction>>5)&0x1 == 1 {
			in.Immediate = true
			in.Imm5 = encoding.SignExtend(instruction&0x1F, 5)
		} else {
			in.Src2 = instruction & 0x7
		}

		return in, nil

	case OP_AND:
		in := And{Dest: reg9, Src1: reg6}

		if (instruction>>5)&0x1 == 1 {
			in.Immediate = true
			in.Imm5 = encoding.SignExtend(instruction&0x1F, 5)
		} else {
			in.Src2 = instruction & 0x7
		}

		return in, nil

	case OP_NOT:
		return Not{Dest: reg9, Src: reg6}, nil

	case OP_BR:
		return Branch{Cond: reg9, PCOffset9: pcoffset9}, nil

	case OP_JMP:
		return Jump{Base: reg6}, nil

	case OP_JSR:
		if (instruction>>11)&0x1 == 1 {
			return JumpSubroutine{
				Long:       true,
				PCOffset11: encoding.SignExtend(instruction&0x7FF, 11),
			}, nil
		}

		return JumpSubroutine{Base: reg6}, nil

	case OP_LD:
		return Load{Dest: reg9, PCOffset9: pcoffset9}, nil

	case OP_LDI:
		return LoadIndirect{Dest: reg9, PCOffset9: pcoffset9}, nil

	case OP_LDR:
		return LoadRegister{Dest: reg9, Base: reg6, Offset6: offset6}, nil

	case OP_LEA:
		return LoadEffectiveAddress{Dest: reg9, PCOffset9: pcoffset9}, nil

	case OP_ST:
		return Store{Src: reg9, PCOffset9: pcoffset9}, nil

	case OP_STI:
		return StoreIndirect{Src: reg9, PCOffset9: pcoffset9}, nil

	case OP_STR:
		return StoreRegister{Src: reg9, Base: reg6, Offset6: offset6}, nil

	case OP_TRAP:
		return Trap{Vector: encoding.ZeroExtend(instruction, 8)}, nil

	// RTI  |1000    |000000000000            | Return from interrupt
	// RES  |1101    |                        | Reserved (illegal)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	default:
		return nil, &DecodeError{Word: instruction, Opcode: opcode}
	}
}

func (Add) Opcode() Opcode                  { return OP_ADD }
func (And) Opcode() Opcode                  { return OP_AND }
func (Not) Opcode() Opcode                  { return OP_NOT }
func (Branch) Opcode() Opcode               { return OP_BR }
func (Jump) Opcode() Opcode                 { return OP_JMP }
func (JumpSubroutine) Opcode() Opcode       { return OP_JSR }
func (Load) Opcode() Opcode                 { return OP_LD }
func (LoadIndirect) Opcode() Opcode         { return OP_LDI }
func (LoadRegister) Opcode() Opcode         { return OP_LDR }
func (LoadEffectiveAddress) Opcode() Opcode { return OP_LEA }
func (Store) Opcode() Opcode                { return OP_ST }
func (StoreIndirect) Opcode() Opcode        { return OP_STI }
func (StoreRegister) Opcode() Opcode        { return OP_STR }
func (Trap) Opcode() Opcode                 { return OP_TRAP }

func (Add) instruction()                  {}
func (And) instruction()                  {}
func (Not) instruction()                  {}
func (Branch) instruction()               {}
func (Jump) instruction()                 {}
func (JumpSubroutine) instruction()       {}
func (Load) instruction()                 {}
func (LoadIndirect) instruction()         {}
func (LoadRegister) instruction()         {}
func (LoadEffectiveAddress) instruction() {}
func (Store) instruction()                {}
func (StoreIndirect) instruction()        {}
func (StoreRegister) instruction()        {}
func (Trap) instruction()                 {}

// Operands print in assembler syntax, offsets as signed decimals.

func imm(value uint16) string {
	return fmt.Sprintf("#%d", int16(value))
}

func (in Add) String() string {
	if in.Immediate {
		return fmt.Sprintf("ADD R%d, R%d, %s", in.Dest, in.Src1, imm(in.Imm5))
	}

	return fmt.Sprintf("ADD R%d, R%d, R%d", in.Dest, in.Src1, in.Src2)
}

func (in And) String() string {
	if in.Immediate {
		return fmt.Sprintf("AND R%d, R%d, %s", in.Dest, in.Src1, imm(in.Imm5))
	}

	return fmt.Sprintf("AND R%d, R%d, R%d", in.Dest, in.Src1, in.Src2)
}

func (in Not) String() string {
	return fmt.Sprintf("NOT R%d, R%d", in.Dest, in.Src)
}

func (in Branch) String() string {
	if in.Cond == 0 {
		return fmt.Sprintf("NOP %s", imm(in.PCOffset9))
	}

	return fmt.Sprintf("BR%s %s", CondString(in.Cond), imm(in.PCOffset9))
}

func (in Jump) String() string {
	if in.Base == R7 {
		return "RET"
	}

	return fmt.Sprintf("JMP R%d", in.Base)
}

func (in JumpSubroutine) String() string {
	if in.Long {
		return fmt.Sprintf("JSR %s", imm(in.PCOffset11))
	}

	return fmt.Sprintf("JSRR R%d", in.Base)
}

func (in Load) String() string {
	return fmt.Sprintf("LD R%d, %s", in.Dest, imm(in.PCOffset9))
}

func (in LoadIndirect) String() string {
	return fmt.Sprintf("LDI R%d, %s", in.Dest, imm(in.PCOffset9))
}

func (in LoadRegister) String() string {
	return fmt.Sprintf("LDR R%d, R%d, %s", in.Dest, in.Base, imm(in.Offset6))
}

func (in LoadEffectiveAddress) String() string {
	return fmt.Sprintf("LEA R%d, %s", in.Dest, imm(in.PCOffset9))
}

func (in Store) String() string {
	return fmt.Sprintf("ST R%d, %s", in.Src, imm(in.PCOffset9))
}

func (in StoreIndirect) String() string {
	return fmt.Sprintf("STI R%d, %s", in.Src, imm(in.PCOffset9))
}

func (in StoreRegister) String() string {
	return fmt.Sprintf("STR R%d, R%d, %s", in.Src, in.Base, imm(in.Offset6))
}

func (in Trap) String() string {
	if name, ok := trapNames[in.Vector]; ok {
		return name
	}

	return fmt.Sprintf("TRAP x%02X", in.Vector)
}

// Disassemble renders an instruction word. Words that do not decode are shown
// as data.
func Disassemble(word uint16) string {
	instruction, err := Decode(word)

	if err != nil {
		return fmt.Sprintf(".FILL x%04X", word)
	}

	return instruction.String()
}

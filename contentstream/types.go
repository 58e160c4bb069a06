// Package contentstream parses, serialises and traces PDF page content.
package contentstream

import "fmt"

// Operation is one operator with the operands that precede it.
type Operation struct {
	Operator string
	Operands []Operand
}

func (op Operation) String() string { return string(SerializeOperation(op)) }

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

// StringOperand holds decoded string bytes. Hex records the source form so
// rewritten strings keep it.
type StringOperand struct {
	Value []byte
	Hex   bool
}

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type BoolOperand struct{ Value bool }

func (BoolOperand) operand()     {}
func (BoolOperand) Type() string { return "boolean" }

type NullOperand struct{}

func (NullOperand) operand()     {}
func (NullOperand) Type() string { return "null" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

// DictOperand keeps key order so a parsed dictionary serialises as read.
type DictOperand struct {
	Keys   []string
	Values map[string]Operand
}

func (DictOperand) operand()     {}
func (DictOperand) Type() string { return "dict" }

func (d DictOperand) Get(key string) (Operand, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// InlineImageOperand is the sole operand of a BI operation: the image
// dictionary between BI and ID and the raw bytes between ID and EI.
type InlineImageOperand struct {
	Image DictOperand
	Data  []byte
}

func (InlineImageOperand) operand()     {}
func (InlineImageOperand) Type() string { return "inline_image" }

// Number returns the numeric value of op, or 0 and false.
func Number(op Operand) (float64, bool) {
	if n, ok := op.(NumberOperand); ok {
		return n.Value, true
	}
	return 0, false
}

func numberAt(ops []Operand, i int) float64 {
	if i >= len(ops) {
		return 0
	}
	v, _ := Number(ops[i])
	return v
}

func nameAt(ops []Operand, i int) (string, bool) {
	if i >= len(ops) {
		return "", false
	}
	n, ok := ops[i].(NameOperand)
	return n.Value, ok
}

// Num, Name and Str build operands.
func Num(v float64) NumberOperand { return NumberOperand{Value: v} }
func Name(v string) NameOperand   { return NameOperand{Value: v} }
func Str(v []byte) StringOperand  { return StringOperand{Value: v} }

// Op builds an operation.
func Op(operator string, operands ...Operand) Operation {
	return Operation{Operator: operator, Operands: operands}
}

// SyntaxError reports malformed content at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("content stream: %s at offset %d", e.Msg, e.Offset)
}

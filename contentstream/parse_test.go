package contentstream_test

import (
	"bytes"
	"errors"
	"testing"

	cs "github.com/wudi/pdfredact/contentstream"
)

func TestParseOperands(t *testing.T) {
	ops, err := cs.Parse([]byte("q 1 0 0 1 10 -2.5 cm /F#201 12 Tf [(a\\(b\\)) -120 <4142>] TJ % comment\nQ"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("expected 5 ops, got %d", len(ops))
	}
	if ops[1].Operator != "cm" || len(ops[1].Operands) != 6 {
		t.Fatalf("bad cm: %+v", ops[1])
	}
	if v, _ := cs.Number(ops[1].Operands[5]); v != -2.5 {
		t.Errorf("expected -2.5, got %v", v)
	}
	if n := ops[2].Operands[0].(cs.NameOperand).Value; n != "F 1" {
		t.Errorf("name escape: %q", n)
	}
	arr := ops[3].Operands[0].(cs.ArrayOperand)
	if s := arr.Values[0].(cs.StringOperand); string(s.Value) != "a(b)" || s.Hex {
		t.Errorf("literal: %+v", s)
	}
	if s := arr.Values[2].(cs.StringOperand); string(s.Value) != "AB" || !s.Hex {
		t.Errorf("hex: %+v", s)
	}
	if ops[4].Operator != "Q" {
		t.Errorf("comment not skipped: %+v", ops[4])
	}
}

func TestParseLiteralEscapes(t *testing.T) {
	ops, err := cs.Parse([]byte("(x\\n\\101\\7(nest)\\\ny) Tj"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := ops[0].Operands[0].(cs.StringOperand).Value
	want := []byte("x\nA\x07(nest)y")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"(open Tj", "<4G> Tj", "[1 2", "BI /W 1 ID abc", ")"} {
		_, err := cs.Parse([]byte(in))
		var se *cs.SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: expected SyntaxError, got %v", in, err)
		}
	}
}

func TestParseInlineImage(t *testing.T) {
	data := []byte("q BI /W 2 /H 1 /CS /RGB /BPC 8 ID \x00EI\x01\x02\x03\x04\x05\r\nEI Q")
	ops, err := cs.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ops) != 3 || ops[1].Operator != "BI" {
		t.Fatalf("unexpected ops: %v", ops)
	}
	img := ops[1].Operands[0].(cs.InlineImageOperand)
	if !bytes.Equal(img.Data, []byte("\x00EI\x01\x02\x03\x04\x05")) {
		t.Fatalf("data: %q", img.Data)
	}
	if len(img.Image.Keys) != 4 || img.Image.Keys[2] != "CS" {
		t.Fatalf("keys: %v", img.Image.Keys)
	}

	out := cs.Serialize(ops)
	again, err := cs.Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, out)
	}
	if !bytes.Equal(again[1].Operands[0].(cs.InlineImageOperand).Data, img.Data) {
		t.Fatalf("inline data changed on round trip")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	src := []byte("BT\n/F1 12 Tf\n1 0 0 1 72.5 700 Tm\n[(Hello\\)) -250.25 <00FF>] TJ\n<</MCID 3>> BDC\ntrue null EMC\nET\n")
	ops, err := cs.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := cs.Serialize(ops)
	if !bytes.Equal(out, src) {
		t.Fatalf("round trip mismatch:\n%s", out)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		-600:       "-600",
		1.5:        "1.5",
		0.1 + 0.2:  "0.3",
		-0.0000001: "0",
		1e-7:       "0",
		2.1234567:  "2.123457",
	}
	for in, want := range cases {
		if got := cs.FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

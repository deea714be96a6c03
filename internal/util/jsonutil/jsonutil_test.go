package jsonutil

import (
	"encoding/json"
	"testing"
)

type payload struct {
	SQL string `json:"sql"`
}

func TestDecode_PlainJSON(t *testing.T) {
	var p payload
	if err := Decode(json.RawMessage(`{"sql":"SELECT 1"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.SQL != "SELECT 1" {
		t.Fatalf("got %q", p.SQL)
	}
}

func TestDecode_FencedJSON(t *testing.T) {
	raw := json.RawMessage("```json\n{\"sql\":\"SELECT 1\"}\n```")
	var p payload
	if err := Decode(raw, &p); err != nil {
		t.Fatal(err)
	}
	if p.SQL != "SELECT 1" {
		t.Fatalf("got %q", p.SQL)
	}
}

func TestDecode_JSONSurroundedByProse(t *testing.T) {
	raw := json.RawMessage("Đây là kết quả:\n{\"sql\":\"SELECT name FROM artists\"}\nHết.")
	var p payload
	if err := Decode(raw, &p); err != nil {
		t.Fatal(err)
	}
	if p.SQL != "SELECT name FROM artists" {
		t.Fatalf("got %q", p.SQL)
	}
}

func TestDecode_NestedBracesInsideStrings(t *testing.T) {
	raw := json.RawMessage(`noise {"sql":"SELECT '{' || name FROM t WHERE x = \"}\""} noise`)
	var p payload
	if err := Decode(raw, &p); err != nil {
		t.Fatal(err)
	}
	if p.SQL == "" {
		t.Fatal("expected sql extracted despite braces inside strings")
	}
}

func TestDecode_NoPayload(t *testing.T) {
	var p payload
	if err := Decode(json.RawMessage("xin lỗi, tôi không thể trả lời"), &p); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestMarshalIndent_NoHTMLEscape(t *testing.T) {
	b, err := MarshalIndent(map[string]string{"description": "số lượng > 0 & hợp lệ"}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "{\n  \"description\": \"số lượng > 0 & hợp lệ\"\n}" {
		t.Fatalf("unexpected output: %q", got)
	}
}

package core

import (
	"reflect"
	"testing"
)

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]string{"Speed=2.5", " Scale = 3 ", "Speed=4"})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if p.Get("Speed", 0) != 4 {
		t.Errorf("Speed: expected 4, got %v", p.Get("Speed", 0))
	}
	if p.Get("Scale", 0) != 3 {
		t.Errorf("Scale: expected 3, got %v", p.Get("Scale", 0))
	}
	if p.Get("Missing", 7) != 7 {
		t.Errorf("Missing: expected default 7, got %v", p.Get("Missing", 7))
	}
	if names := p.Names(); !reflect.DeepEqual(names, []string{"Scale", "Speed"}) {
		t.Errorf("Names: expected [Scale Speed], got %v", names)
	}
}

func TestParseParamsInvalid(t *testing.T) {
	for _, pair := range []string{"Speed", "=1", "Speed=fast"} {
		if _, err := ParseParams([]string{pair}); err == nil {
			t.Errorf("ParseParams(%q): expected error", pair)
		}
	}
}

func TestParamsMerge(t *testing.T) {
	base := Params{"Speed": 1, "Scale": 2}
	merged := base.Merge(Params{"Speed": 5})
	if merged["Speed"] != 5 || merged["Scale"] != 2 {
		t.Errorf("Merge: unexpected %v", merged)
	}
	if base["Speed"] != 1 {
		t.Error("Merge: base was modified")
	}
}

package plugin

import (
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	var nilFunc func()
	var nilMap map[string]any

	tests := []struct {
		name  string
		value any
		kinds []Kind
		valid bool
	}{
		{"nil is always valid", nil, []Kind{KindFunction}, true},
		{"nil func is absent", nilFunc, []Kind{KindString}, true},
		{"nil map is absent", nilMap, []Kind{KindString}, true},
		{"func matches Function", func() {}, []Kind{KindFunction}, true},
		{"slice matches Array", []string{"a"}, []Kind{KindArray}, true},
		{"array matches Array", [2]int{1, 2}, []Kind{KindArray}, true},
		{"string map matches Object", map[string]int{"x": 1}, []Kind{KindObject}, true},
		{"int-keyed map is not Object", map[int]int{1: 1}, []Kind{KindObject}, false},
		{"string matches String", "mixin.js", []Kind{KindString}, true},
		{"second kind matches", "x", []Kind{KindArray, KindString}, true},
		{"string is not Function", "x", []Kind{KindFunction}, false},
		{"number is not Object", 3, []Kind{KindObject}, false},
		{"struct is not Object", struct{}{}, []Kind{KindObject}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(tt.value, tt.kinds...)
			if res.Valid != tt.valid {
				t.Fatalf("Check(%v) valid=%v, want %v (message %q)", tt.value, res.Valid, tt.valid, res.Message)
			}
			if !res.Valid && res.Message == "" {
				t.Error("expected a message on mismatch")
			}
		})
	}
}

func TestCheck_Message(t *testing.T) {
	res := Check(42, KindFunction, KindArray)
	want := "expected Function or Array, but got Number."
	if res.Message != want {
		t.Errorf("got %q, want %q", res.Message, want)
	}

	res = Check(true, KindString)
	if !strings.Contains(res.Message, "Boolean") {
		t.Errorf("expected observed kind Boolean in %q", res.Message)
	}
}

func TestCheckElements(t *testing.T) {
	if res := checkElements([]any{"a", "b"}, KindString); !res.Valid {
		t.Fatalf("unexpected failure: %s", res.Message)
	}
	if res := checkElements("not-a-sequence", KindString); !res.Valid {
		t.Fatal("non-sequence values are not element-checked")
	}

	res := checkElements([]any{"a", 1}, KindString)
	if res.Valid {
		t.Fatal("expected element mismatch")
	}
	if !strings.Contains(res.Message, "element 1") || !strings.Contains(res.Message, "Number") {
		t.Errorf("unexpected message %q", res.Message)
	}

	res = checkElements([]any{func() {}, nil}, KindFunction)
	if res.Valid {
		t.Fatal("nil element must be rejected")
	}
	if !strings.Contains(res.Message, "Undefined") {
		t.Errorf("unexpected message %q", res.Message)
	}
}

package value

import "testing"

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"ints equal", Int(5), Int(5), true},
		{"ints differ", Int(5), Int(6), false},
		{"floats equal", Float(1.5), Float(1.5), true},
		{"strings equal", String("foo"), String("foo"), true},
		{"strings differ", String("foo"), String("bar"), false},
		{"registers equal", Register(RegX), Register(RegX), true},
		{"registers differ", Register(RegX), Register(RegY), false},
		{"kind mismatch", Int(1), String("1"), false},
		{"nil vs empty", nil, Empty(), true},
		{"backref same num", Backref(3), Backref(3), true},
		{"backref different num", Backref(3), Backref(4), false},
		{"binary oper equal", Binary(OpAdd, Int(1), Int(2)), Binary(OpAdd, Int(1), Int(2)), true},
		{"binary oper different op", Binary(OpAdd, Int(1), Int(2)), Binary(OpSub, Int(1), Int(2)), false},
		{"binary oper different operand", Binary(OpAdd, Int(1), Int(2)), Binary(OpAdd, Int(1), Int(3)), false},
		{"array equal", Array(Int(1), Int(2)), Array(Int(1), Int(2)), true},
		{"array length mismatch", Array(Int(1)), Array(Int(1), Int(2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestWithAttr(t *testing.T) {
	v := Int(10)
	tagged := WithAttr(v, Attr8Bit)
	if tagged.Attr != Attr8Bit {
		t.Errorf("tagged.Attr = %v, want Attr8Bit", tagged.Attr)
	}
	if v.Attr != AttrNone {
		t.Errorf("original value mutated: Attr = %v, want AttrNone", v.Attr)
	}
	if tagged.Int != 10 {
		t.Errorf("tagged.Int = %d, want 10", tagged.Int)
	}

	nilTagged := WithAttr(nil, Attr16Bit)
	if nilTagged.Kind != KindEmpty || nilTagged.Attr != Attr16Bit {
		t.Errorf("WithAttr(nil, ...) = %#v, want empty kind with the given attr", nilTagged)
	}
}

func TestPushArray(t *testing.T) {
	arr := PushArray(nil, Int(1))
	if arr.Kind != KindArray || len(arr.Kids) != 1 {
		t.Fatalf("PushArray(nil, ...) = %#v, want a 1-element array", arr)
	}
	arr = PushArray(arr, Int(2))
	if len(arr.Kids) != 2 {
		t.Fatalf("expected 2 elements after second push, got %d", len(arr.Kids))
	}
	if arr.Kids[0].Int != 1 || arr.Kids[1].Int != 2 {
		t.Errorf("unexpected element order: %#v", arr.Kids)
	}

	empty := PushArray(Empty(), Int(7))
	if len(empty.Kids) != 1 || empty.Kids[0].Int != 7 {
		t.Errorf("PushArray(Empty(), ...) = %#v, want a fresh 1-element array", empty)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    *Value
		want string
	}{
		{Int(42), "42"},
		{Float(1.5), "1.5"},
		{String("hi"), "hi"},
		{Register(RegA), "A"},
		{Empty(), "empty"},
		{nil, "<empty>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("(%#v).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestAttrOfAndTypeOfNil(t *testing.T) {
	if TypeOf(nil) != KindEmpty {
		t.Errorf("TypeOf(nil) = %v, want KindEmpty", TypeOf(nil))
	}
	if AttrOf(nil) != AttrNone {
		t.Errorf("AttrOf(nil) = %v, want AttrNone", AttrOf(nil))
	}
}

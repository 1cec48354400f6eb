package safe

import (
	"math"
	"testing"
)

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestAdd(t *testing.T) {
	if Add(2, 3) != 5 {
		t.Error("Add(2,3) != 5")
	}
	if Add(-2, -3) != -5 {
		t.Error("Add(-2,-3) != -5")
	}
	expectPanic(t, "add overflow", func() { Add(math.MaxInt64, 1) })
	expectPanic(t, "add underflow", func() { Add(math.MinInt64, -1) })
}

func TestSub(t *testing.T) {
	if Sub(2, 3) != -1 {
		t.Error("Sub(2,3) != -1")
	}
	expectPanic(t, "sub overflow", func() { Sub(math.MaxInt64, -1) })
	expectPanic(t, "sub underflow", func() { Sub(math.MinInt64, 1) })
}

func TestMul(t *testing.T) {
	if Mul(0, math.MaxInt64) != 0 {
		t.Error("Mul by zero should be zero")
	}
	if Mul(-4, 5) != -20 {
		t.Error("Mul(-4,5) != -20")
	}
	expectPanic(t, "mul overflow", func() { Mul(math.MaxInt64, 2) })
	expectPanic(t, "mul overflow negative", func() { Mul(math.MinInt64, -1) })
}

func TestDiv(t *testing.T) {
	if Div(7, 2) != 3 {
		t.Error("Div(7,2) != 3")
	}
	expectPanic(t, "div by zero", func() { Div(1, 0) })
	expectPanic(t, "div overflow", func() { Div(math.MinInt64, -1) })
}

func TestAbs(t *testing.T) {
	if Abs(-7) != 7 || Abs(7) != 7 || Abs(0) != 0 {
		t.Error("Abs basic cases failed")
	}
	expectPanic(t, "abs overflow", func() { Abs(math.MinInt64) })
}

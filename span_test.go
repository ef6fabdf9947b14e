package lambdawg

import "testing"

func TestSpanMergeIsCommutativeAndAssociative(t *testing.T) {
	a := Span{Start: Position{Offset: 0}, End: Position{Offset: 3}}
	b := Span{Start: Position{Offset: 2}, End: Position{Offset: 5}}
	c := Span{Start: Position{Offset: 4}, End: Position{Offset: 9}}

	ab := a.Merge(b)
	ba := b.Merge(a)
	if ab != ba {
		t.Fatalf("Merge not commutative: a.Merge(b)=%+v b.Merge(a)=%+v", ab, ba)
	}

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))
	if left != right {
		t.Fatalf("Merge not associative: (a.b).c=%+v a.(b.c)=%+v", left, right)
	}

	if left.Start.Offset != 0 || left.End.Offset != 9 {
		t.Fatalf("Merge did not take the min start / max end: %+v", left)
	}
}

func TestMergeSpansFoldsOverAnyOrder(t *testing.T) {
	spans := []Span{
		{Start: Position{Offset: 10}, End: Position{Offset: 12}},
		{Start: Position{Offset: 1}, End: Position{Offset: 4}},
		{Start: Position{Offset: 5}, End: Position{Offset: 20}},
	}
	forward := mergeSpans(spans[0], spans[1], spans[2])
	reversed := mergeSpans(spans[2], spans[1], spans[0])
	if forward != reversed {
		t.Fatalf("mergeSpans is order-dependent: forward=%+v reversed=%+v", forward, reversed)
	}
	if forward.Start.Offset != 1 || forward.End.Offset != 20 {
		t.Fatalf("unexpected merged span: %+v", forward)
	}
}

func TestSpanZero(t *testing.T) {
	if !(Span{}).Zero() {
		t.Fatal("zero-value Span should report Zero() == true")
	}
	nonZero := Span{Start: Position{Offset: 1}}
	if nonZero.Zero() {
		t.Fatal("span with a non-origin start should not report Zero()")
	}
}

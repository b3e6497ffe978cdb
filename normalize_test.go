package vsadjust

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeSeq(t *testing.T) {
	cases := []struct {
		name string
		in   []int
		n    int
		want []int
	}{
		{name: "scalar", in: []int{4}, n: 3, want: []int{4, 4, 4}},
		{name: "short", in: []int{1, 2}, n: 3, want: []int{1, 2, 2}},
		{name: "exact", in: []int{1, 2, 3}, n: 3, want: []int{1, 2, 3}},
		{name: "long", in: []int{1, 2, 3, 4}, n: 2, want: []int{1, 2}},
		{name: "empty", in: nil, n: 2, want: []int{0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, NormalizeSeq(tc.in, tc.n)); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeMargins(t *testing.T) {
	got, err := NormalizeMargins([]int{1}, []int{0, 2}, nil, []int{3, 0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Margins{
		{Left: 1, Right: 0, Top: 0, Bottom: 3},
		{Left: 1, Right: 2, Top: 0, Bottom: 0},
		{Left: 1, Right: 2, Top: 0, Bottom: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected margins (-want +got):\n%s", diff)
	}
	if AllZero(got) {
		t.Fatal("margins are not all zero")
	}

	zero, err := NormalizeMargins(nil, []int{0}, nil, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !AllZero(zero) {
		t.Fatal("expected all zero margins")
	}

	if _, err := NormalizeMargins([]int{1}, nil, []int{0, -1}, nil, 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizePlanes(t *testing.T) {
	got, err := normalizePlanes([]int{2, 0, 2}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 2}, got); diff != "" {
		t.Fatalf("unexpected planes (-want +got):\n%s", diff)
	}
	def, err := normalizePlanes(nil, 3, allPlanes(3))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, def); diff != "" {
		t.Fatalf("unexpected default planes (-want +got):\n%s", diff)
	}
	if _, err := normalizePlanes([]int{3}, 3, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

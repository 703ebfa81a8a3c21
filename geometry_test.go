// SPDX-License-Identifier: MIT

package pcbroute

import "testing"

func TestPlanarStepCost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		dx, dy int32
		want   int32
	}{
		{1, 0, OrthoCost},
		{0, 1, OrthoCost},
		{-1, 0, OrthoCost},
		{1, 1, DiagCost},
		{-1, -1, DiagCost},
		{1, -1, DiagCost},
	}
	for _, c := range cases {
		if got := planarStepCost(c.dx, c.dy); got != c.want {
			t.Errorf("planarStepCost(%d,%d) = %d, want %d", c.dx, c.dy, got, c.want)
		}
	}
}

func TestOctileRawSymmetricAndExact(t *testing.T) {
	t.Parallel()

	if got := octileRaw(4, 0); got != 4*OrthoCost {
		t.Errorf("octileRaw(4,0) = %d, want %d", got, 4*OrthoCost)
	}
	if got := octileRaw(3, 3); got != 3*DiagCost {
		t.Errorf("octileRaw(3,3) = %d, want %d", got, 3*DiagCost)
	}
	if got, want := octileRaw(5, 2), 2*DiagCost+3*OrthoCost; got != want {
		t.Errorf("octileRaw(5,2) = %d, want %d", got, want)
	}
	if octileRaw(5, 2) != octileRaw(-5, -2) {
		t.Error("octileRaw must be symmetric in sign")
	}
}

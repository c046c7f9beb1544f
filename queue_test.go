package minirt

import "testing"

func TestQueue(t *testing.T) {
	t.Run("Overall", func(t *testing.T) {
		var q queue[string]

		for _, r := range "abcdefgh" {
			q.Push(string(r))
		}

		for _, r := range "abcd" {
			if v := q.Pop(); v != string(r) {
				t.FailNow()
			}
		}

		for _, r := range "ijk" {
			q.Push(string(r))
		}

		if q.Len() != 7 {
			t.FailNow()
		}

		for _, r := range "efghijk" {
			if v := q.Pop(); v != string(r) {
				t.FailNow()
			}
		}

		if !q.Empty() {
			t.FailNow()
		}
	})
	t.Run("Interleaved", func(t *testing.T) {
		var q queue[int]

		next := 0
		for i := range 100 {
			q.Push(2 * i)
			q.Push(2*i + 1)
			if v := q.Pop(); v != next {
				t.Fatalf("Pop() = %d, want %d", v, next)
			}
			next++
		}

		for !q.Empty() {
			if v := q.Pop(); v != next {
				t.Fatalf("Pop() = %d, want %d", v, next)
			}
			next++
		}

		if next != 200 {
			t.FailNow()
		}
	})
}

package orchestration

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

func params(n, e int, c simulation.Capacity) simulation.Params {
	return simulation.Params{Particles: n, TotalEnergy: e, Capacity: c}
}

func TestPartition(t *testing.T) {
	t.Parallel()
	capped := simulation.WithLevels(4)
	tests := []struct {
		name    string
		p       simulation.Params
		workers int
		want    [][2]int // {particles, energy} per shard
	}{
		{"single shard", params(5, 7, capped), 1, [][2]int{{5, 7}}},
		{"even split", params(8, 4, capped), 4, [][2]int{{2, 1}, {2, 1}, {2, 1}, {2, 1}}},
		{"last absorbs remainders", params(10, 7, capped), 3, [][2]int{{3, 2}, {3, 2}, {4, 3}}},
		{"energy below workers", params(6, 2, capped), 3, [][2]int{{2, 0}, {2, 0}, {2, 2}}},
		{"one particle each", params(3, 0, capped), 3, [][2]int{{1, 0}, {1, 0}, {1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			shards, err := Partition(tt.p, tt.workers)
			if err != nil {
				t.Fatalf("Partition: %v", err)
			}
			got := make([][2]int, len(shards))
			for i, s := range shards {
				if s.Index != i {
					t.Errorf("shard %d has index %d", i, s.Index)
				}
				if s.Capacity != tt.p.Capacity {
					t.Errorf("shard %d capacity %v, want %v", i, s.Capacity, tt.p.Capacity)
				}
				got[i] = [2]int{s.Particles, s.TotalEnergy}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("shares mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartitionErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		p         simulation.Params
		workers   int
		wantField string
	}{
		{"zero workers", params(10, 5, simulation.Unbounded()), 0, "workers"},
		{"negative workers", params(10, 5, simulation.Unbounded()), -2, "workers"},
		{"more workers than particles", params(2, 5, simulation.Unbounded()), 3, "workers"},
		{"no particles", params(0, 5, simulation.Unbounded()), 1, "particles"},
		{"negative energy", params(4, -1, simulation.Unbounded()), 1, "total_energy"},
		{"zero levels", params(4, 1, simulation.WithLevels(0)), 1, "levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Partition(tt.p, tt.workers)
			var verr apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestPartitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("shard totals equal the request", prop.ForAll(
		func(n, e, w int) bool {
			if w > n {
				w = n
			}
			shards, err := Partition(params(n, e, simulation.Unbounded()), w)
			if err != nil || len(shards) != w {
				return false
			}
			var sumN, sumE int
			for _, s := range shards[:w-1] {
				if s.Particles != n/w || s.TotalEnergy != e/w {
					return false
				}
				sumN += s.Particles
				sumE += s.TotalEnergy
			}
			sumN += shards[w-1].Particles
			sumE += shards[w-1].TotalEnergy
			return sumN == n && sumE == e
		},
		gen.IntRange(1, 100_000),
		gen.IntRange(0, 1_000_000),
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

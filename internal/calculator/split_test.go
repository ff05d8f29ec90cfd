package calculator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sdfghub/property-sub001/internal/models"
)

func equalWeights(t *testing.T, units ...string) []Weight {
	t.Helper()
	items := make([]Weight, len(units))
	for i, u := range units {
		items[i] = Weight{UnitID: u, Raw: 1}
	}
	w, err := Normalize(items)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return w
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		weights func(t *testing.T) []Weight
		want    []string
		wantErr bool
	}{
		{
			name:    "100.00 three ways puts the cent on the first unit",
			total:   "100.00",
			weights: func(t *testing.T) []Weight { return equalWeights(t, "u1", "u2", "u3") },
			want:    []string{"33.34", "33.33", "33.33"},
		},
		{
			name:  "proportional split without residue",
			total: "100.00",
			weights: func(t *testing.T) []Weight {
				w, _ := Normalize([]Weight{{UnitID: "a", Raw: 1}, {UnitID: "b", Raw: 2}, {UnitID: "c", Raw: 1}})
				return w
			},
			want: []string{"25", "50", "25"},
		},
		{
			name:  "residue goes to the largest weight, not the first unit",
			total: "10.00",
			weights: func(t *testing.T) []Weight {
				w, _ := Normalize([]Weight{{UnitID: "a", Raw: 1}, {UnitID: "b", Raw: 1}, {UnitID: "c", Raw: 1}, {UnitID: "d", Raw: 3}})
				return w
			},
			// 1.666.. -> 1.67 x3, 5.00; sum 10.01; diff -0.01 on d
			want: []string{"1.67", "1.67", "1.67", "4.99"},
		},
		{
			name:    "half cent rounds away from zero then reconciles",
			total:   "0.05",
			weights: func(t *testing.T) []Weight { return equalWeights(t, "a", "b") },
			want:    []string{"0.02", "0.03"},
		},
		{
			name:    "negative totals reconcile symmetrically",
			total:   "-100.00",
			weights: func(t *testing.T) []Weight { return equalWeights(t, "u1", "u2", "u3") },
			want:    []string{"-33.34", "-33.33", "-33.33"},
		},
		{
			name:    "no weights should error",
			total:   "10.00",
			weights: func(t *testing.T) []Weight { return nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			shares, err := SplitAmount(total, tt.weights(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			sum := decimal.Zero
			for i, s := range shares {
				want := decimal.RequireFromString(tt.want[i])
				if !s.Amount.Equal(want) {
					t.Errorf("share %d (%s) = %s, want %s", i, s.UnitID, s.Amount, want)
				}
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(total) {
				t.Errorf("shares sum to %s, want %s", sum, total)
			}
		})
	}
}

func TestSplitAmount_AlwaysReconciles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		n := 1 + rng.Intn(40)
		items := make([]Weight, n)
		for i := range items {
			raw := rng.Float64() * 150
			if rng.Intn(5) == 0 {
				raw = 0
			}
			items[i] = Weight{UnitID: string(rune('a' + i)), Raw: raw}
		}
		weights, err := Normalize(items)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}

		total := decimal.New(rng.Int63n(10_000_000)-1_000_000, -2)
		shares, err := SplitAmount(total, weights)
		if err != nil {
			t.Fatalf("SplitAmount failed: %v", err)
		}

		sum := decimal.Zero
		for _, s := range shares {
			if !s.Amount.Equal(s.Amount.Round(2)) {
				t.Fatalf("run %d: share %s has sub-cent precision", run, s.Amount)
			}
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(total) {
			t.Fatalf("run %d: shares sum to %s, want %s", run, sum, total)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Run("weights sum to one", func(t *testing.T) {
		w, err := Normalize([]Weight{{UnitID: "a", Raw: 72.5}, {UnitID: "b", Raw: 48}, {UnitID: "c", Raw: 101.25}})
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		var sum float64
		for _, it := range w {
			sum += it.Weight
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("weights sum to %v, want 1", sum)
		}
	})

	t.Run("all zero raws fall back to equal weights", func(t *testing.T) {
		w, err := Normalize([]Weight{{UnitID: "a"}, {UnitID: "b"}})
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		for _, it := range w {
			if math.Abs(it.Weight-0.5) > 1e-9 {
				t.Errorf("%s weight = %v, want 0.5", it.UnitID, it.Weight)
			}
		}
	})

	t.Run("zero raw gets a tiny non-zero weight", func(t *testing.T) {
		w, err := Normalize([]Weight{{UnitID: "a", Raw: 10}, {UnitID: "b", Raw: 0}})
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if w[1].Weight <= 0 || w[1].Weight > 1e-12 {
			t.Errorf("zero unit weight = %v, want in (0, 1e-12]", w[1].Weight)
		}
		if w[1].Raw != 0 {
			t.Errorf("raw should be preserved, got %v", w[1].Raw)
		}
	})

	t.Run("empty input should error", func(t *testing.T) {
		if _, err := Normalize(nil); err == nil {
			t.Error("expected error for empty input")
		}
	})

	invalid := []struct {
		name string
		raws []float64
	}{
		{"positive infinity", []float64{math.Inf(1), 1}},
		{"negative infinity", []float64{1, math.Inf(-1)}},
		{"NaN", []float64{math.NaN(), 1}},
		{"sum overflows", []float64{1.7e308, 1.7e308}},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			items := make([]Weight, len(tt.raws))
			for i, r := range tt.raws {
				items[i] = Weight{UnitID: string(rune('a' + i)), Raw: r}
			}
			_, err := Normalize(items)
			if !errors.Is(err, models.ErrInvalidMeasure) {
				t.Errorf("Normalize(%v) error = %v, want ErrInvalidMeasure", tt.raws, err)
			}
		})
	}
}

func TestSplitAmount_RejectsNonFiniteWeight(t *testing.T) {
	_, err := SplitAmount(decimal.NewFromInt(100), []Weight{{UnitID: "a", Weight: math.NaN()}, {UnitID: "b"}})
	if !errors.Is(err, models.ErrInvalidMeasure) {
		t.Errorf("SplitAmount error = %v, want ErrInvalidMeasure", err)
	}
}

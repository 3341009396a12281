package search

import (
	"math"
	"testing"

	"github.com/drivelane/carsearch/internal/domain"
)

func makeResult(ref string) domain.VehicleResult {
	return domain.NewResult(domain.Vehicle{Ref: ref, Make: "Make-" + ref}, 0, domain.ScoreBreakdown{})
}

func refs(results []domain.VehicleResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Ref()
	}
	return out
}

func TestMerge_ScoreFormula(t *testing.T) {
	// list1=[V1,V2] w=0.5, list2=[V2,V3] w=0.5, k=60:
	// V2 = 0.5/62 + 0.5/61, V1 = 0.5/61, V3 = 0.5/61, so V2 ranks first.
	list1 := []domain.VehicleResult{makeResult("v1"), makeResult("v2")}
	list2 := []domain.VehicleResult{makeResult("v2"), makeResult("v3")}

	merged := Merge(list1, list2, 0.5, 0.5, 60)
	if len(merged) != 3 {
		t.Fatalf("expected 3 results, got %d", len(merged))
	}
	if merged[0].Ref() != "v2" {
		t.Fatalf("expected v2 first, got %v", refs(merged))
	}

	wantV2 := 0.5/62.0 + 0.5/61.0
	if math.Abs(merged[0].Score()-wantV2) > 1e-12 {
		t.Errorf("v2 score = %v, want %v", merged[0].Score(), wantV2)
	}
	wantSingle := 0.5 / 61.0
	for _, r := range merged[1:] {
		if math.Abs(r.Score()-wantSingle) > 1e-12 {
			t.Errorf("%s score = %v, want %v", r.Ref(), r.Score(), wantSingle)
		}
	}
}

func TestMerge_MembershipCommutative(t *testing.T) {
	list1 := []domain.VehicleResult{makeResult("a"), makeResult("b")}
	list2 := []domain.VehicleResult{makeResult("b"), makeResult("c")}

	ab := Merge(list1, list2, 0.7, 0.3, 60)
	ba := Merge(list2, list1, 0.3, 0.7, 60)

	if len(ab) != len(ba) {
		t.Fatalf("member counts differ: %d vs %d", len(ab), len(ba))
	}
	seen := make(map[string]bool)
	for _, r := range ab {
		seen[r.Ref()] = true
	}
	for _, r := range ba {
		if !seen[r.Ref()] {
			t.Errorf("member %s missing after swapping argument order", r.Ref())
		}
	}
}

func TestMerge_EmptyInputs(t *testing.T) {
	t.Run("both empty", func(t *testing.T) {
		if merged := Merge(nil, nil, 0.5, 0.5, 60); len(merged) != 0 {
			t.Fatalf("expected empty merge, got %d", len(merged))
		}
	})
	t.Run("one empty degenerates to the other", func(t *testing.T) {
		list := []domain.VehicleResult{makeResult("a"), makeResult("b")}
		merged := Merge(list, nil, 0.5, 0.5, 60)
		if len(merged) != 2 || merged[0].Ref() != "a" {
			t.Fatalf("unexpected merge of one-sided input: %v", refs(merged))
		}
	})
}

func TestMerge_SortedDescending(t *testing.T) {
	list1 := []domain.VehicleResult{makeResult("a"), makeResult("b"), makeResult("c")}
	list2 := []domain.VehicleResult{makeResult("c"), makeResult("d")}

	merged := Merge(list1, list2, 0.5, 0.5, 60)
	for i := 1; i < len(merged); i++ {
		if merged[i].Score() > merged[i-1].Score() {
			t.Errorf("not sorted at %d: %v > %v", i, merged[i].Score(), merged[i-1].Score())
		}
	}
}

func TestMerge_UnionOfBreakdowns(t *testing.T) {
	exact := domain.NewResult(domain.Vehicle{Ref: "a"}, 1.0, domain.ScoreBreakdown{ExactMatch: 1.0})
	semantic := domain.NewResult(domain.Vehicle{Ref: "a"}, 0.8, domain.ScoreBreakdown{Semantic: 0.8})

	merged := Merge(
		[]domain.VehicleResult{exact},
		[]domain.VehicleResult{semantic},
		0.5, 0.5, 60,
	)
	if len(merged) != 1 {
		t.Fatalf("expected dedupe to 1 result, got %d", len(merged))
	}
	bd := merged[0].Breakdown()
	if bd.ExactMatch != 1.0 || bd.Semantic != 0.8 {
		t.Errorf("breakdown union lost a signal: %+v", bd)
	}
}

func TestMergeN_NormalizesWeights(t *testing.T) {
	list1 := []domain.VehicleResult{makeResult("a")}
	list2 := []domain.VehicleResult{makeResult("b")}

	// Weights 2 and 2 normalize to 0.5 each.
	merged := MergeN([][]domain.VehicleResult{list1, list2}, []float64{2, 2}, 60)
	want := 0.5 / 61.0
	for _, r := range merged {
		if math.Abs(r.Score()-want) > 1e-12 {
			t.Errorf("%s score = %v, want %v", r.Ref(), r.Score(), want)
		}
	}
}

func TestMergeN_ThreeLists(t *testing.T) {
	lists := [][]domain.VehicleResult{
		{makeResult("a"), makeResult("b")},
		{makeResult("b")},
		{makeResult("b"), makeResult("c")},
	}
	merged := MergeN(lists, []float64{1, 1, 1}, 60)
	if merged[0].Ref() != "b" {
		t.Errorf("expected b first (appears in all lists), got %v", refs(merged))
	}
}

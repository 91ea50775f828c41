package semantic_test

import (
	"testing"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/semantic"
)

func Test_Similarity(t *testing.T) {
	type table struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}

	tt := []table{
		{name: "identical", a: "alice delivers apples to bob", b: "alice delivers apples to bob", min: 1, max: 1},
		{name: "case and punctuation", a: "Alice delivers apples, to Bob!", b: "alice delivers apples to bob", min: 1, max: 1},
		{name: "partial overlap", a: "alice delivers apples to bob", b: "alice delivers oranges to bob", min: 0.5, max: 0.9},
		{name: "disjoint", a: "alice delivers apples", b: "the contract terminates", min: 0, max: 0},
		{name: "empty side", a: "", b: "alice delivers apples", min: 0, max: 0},
	}

	t.Log("Given the need to score paraphrase agreement.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen comparing the %s pair.", testID, tst.name)
			{
				score := semantic.Similarity(tst.a, tst.b)
				if score < tst.min || score > tst.max {
					t.Fatalf("\t%s\tTest %d:\tShould score within [%v, %v]: got %v", failed, testID, tst.min, tst.max, score)
				}
				t.Logf("\t%s\tTest %d:\tShould score within [%v, %v].", success, testID, tst.min, tst.max)
			}
		}
	}
}

func Test_MeanPairwise(t *testing.T) {
	t.Log("Given the need to compute the mean pairwise agreement.")
	{
		t.Logf("\tTest 0:\tWhen fewer than two paraphrases exist.")
		{
			if semantic.MeanPairwise(nil) != 1 || semantic.MeanPairwise([]string{"only one"}) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould score a lone paraphrase as full agreement.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould score a lone paraphrase as full agreement.", success)
		}

		t.Logf("\tTest 1:\tWhen mixing identical and disjoint paraphrases.")
		{
			mean := semantic.MeanPairwise([]string{
				"alice delivers apples",
				"alice delivers apples",
				"the contract terminates",
			})

			// Pairs: identical (1), and two disjoint (0): mean is 1/3.
			if mean < 0.3 || mean > 0.4 {
				t.Fatalf("\t%s\tTest 1:\tShould average across every pair: got %v", failed, mean)
			}
			t.Logf("\t%s\tTest 1:\tShould average across every pair.", success)
		}
	}
}

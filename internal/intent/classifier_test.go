package intent

import (
	"testing"

	"github.com/tercih-asistani/app/models"
)

func TestClassifyIntents(t *testing.T) {
	c := NewClassifier(2.0)

	cases := []struct {
		name string
		text string
		want models.Intent
	}{
		{"net question", "bogazici bilgisayar icin kac net gerekir", models.IntentNetCalculation},
		{"net with target", "450 puan icin kac net yapmam lazim", models.IntentNetCalculation},
		{"base score", "itu elektrik taban puani kac", models.IntentBaseScoreLookup},
		{"base rank", "tip taban siralamasi nedir", models.IntentBaseScoreLookup},
		{"quota", "hacettepe psikoloji kontenjani kac", models.IntentQuotaInquiry},
		{"quota persons", "kac kisi aliyor bu bolum", models.IntentQuotaInquiry},
		{"search", "odtu de hangi bolumler var", models.IntentProgramSearch},
		{"search by program", "bilgisayar hangi universitelerde var hangi bolum", models.IntentProgramSearch},
		{"gibberish", "merhaba nasilsin", models.IntentClarificationNeeded},
		{"empty", "", models.IntentClarificationNeeded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.text)
			if got.Intent != tc.want {
				t.Errorf("Classify(%q) = %s (score %.1f, matched %v), want %s",
					tc.text, got.Intent, got.Score, got.Matched, tc.want)
			}
		})
	}
}

func TestClassifyTokenBoundaries(t *testing.T) {
	c := NewClassifier(2.0)

	// "internet" must not trigger the net intent.
	got := c.Classify("internette gezinmeyi seviyorum")
	if got.Intent != models.IntentClarificationNeeded {
		t.Errorf("substring leaked across token boundary: got %s (matched %v)", got.Intent, got.Matched)
	}
}

func TestClassifyDeterministicTieBreak(t *testing.T) {
	c := NewClassifier(0.5)

	// "net" (1.0) and "puan" (0.8) both fire; the scores differ so the
	// winner is fixed, and repeated runs must agree.
	text := "net puan"
	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); got.Intent != first.Intent {
			t.Fatalf("run %d: intent %s != %s", i, got.Intent, first.Intent)
		}
	}
	if first.Intent != models.IntentNetCalculation {
		t.Errorf("expected net_calculation to win, got %s", first.Intent)
	}
}

func TestClassifyBelowThreshold(t *testing.T) {
	c := NewClassifier(2.0)

	// A lone weak trigger scores under the floor.
	got := c.Classify("puan")
	if got.Intent != models.IntentClarificationNeeded {
		t.Errorf("got %s, want clarification_needed", got.Intent)
	}
	if got.Score >= 2.0 {
		t.Errorf("score %.1f should be under the floor", got.Score)
	}
}

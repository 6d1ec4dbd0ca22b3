package normalizer

import (
	"testing"
)

func TestNormalizeTurkishFolding(t *testing.T) {
	tn := NewTextNormalizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"diacritics", "Boğaziçi Üniversitesi", "bogazici universitesi"},
		{"dotted capital I", "İstanbul Teknik Üniversitesi", "istanbul teknik universitesi"},
		{"dotless i", "ITÜ SAYISAL", "itu sayisal"},
		{"acronym", "TÜ", "tu"},
		{"mixed question", "ODTÜ bilgisayar için kaç net gerekir?", "odtu bilgisayar icin kac net gerekir"},
		{"punctuation to space", "puan:450 , hedef!", "puan 450 hedef"},
		{"abbreviation dot dropped", "prof. dr. için", "prof dr icin"},
		{"non-latin transliteration", "中 üniversitesi", "zhong universitesi"},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tn.Normalize(tc.in)
			if got.Text != tc.want {
				t.Errorf("Normalize(%q).Text = %q, want %q", tc.in, got.Text, tc.want)
			}
		})
	}
}

func TestNormalizeNumbers(t *testing.T) {
	tn := NewTextNormalizer()

	cases := []struct {
		name     string
		in       string
		wantText string
		wantNums []float64
	}{
		{"decimal comma", "hedefim 450,5 puan", "hedefim 450.5 puan", []float64{450.5}},
		{"decimal dot", "450.5 yeterli mi", "450.5 yeterli mi", []float64{450.5}},
		{"integer", "80 net yaptım", "80 net yaptim", []float64{80}},
		{"several numbers", "2025 yılında 480 puan", "2025 yilinda 480 puan", []float64{2025, 480}},
		{"no numbers", "taban puanı nedir", "taban puani nedir", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tn.Normalize(tc.in)
			if got.Text != tc.wantText {
				t.Errorf("text = %q, want %q", got.Text, tc.wantText)
			}
			if len(got.Numbers) != len(tc.wantNums) {
				t.Fatalf("numbers = %v, want %v", got.Numbers, tc.wantNums)
			}
			for i := range tc.wantNums {
				if got.Numbers[i] != tc.wantNums[i] {
					t.Errorf("numbers[%d] = %v, want %v", i, got.Numbers[i], tc.wantNums[i])
				}
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tn := NewTextNormalizer()

	inputs := []string{
		"Boğaziçi Üniversitesi Bilgisayar Mühendisliği",
		"TÜ için 450,5 puan yeterli mi?",
		"İSTANBUL!!! can't parse this... ÖSYM",
		"中 üniversitesi",
		"北京 taban puanı",
	}

	for _, in := range inputs {
		once := tn.Normalize(in)
		twice := tn.Normalize(once.Text)
		if once.Text != twice.Text {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once.Text, twice.Text)
		}
	}
}

func TestNormalizeTermMatchesNormalize(t *testing.T) {
	tn := NewTextNormalizer()

	in := "Elektrik-Elektronik Mühendisliği"
	if got, want := tn.NormalizeTerm(in), tn.Normalize(in).Text; got != want {
		t.Errorf("NormalizeTerm = %q, Normalize().Text = %q", got, want)
	}
}

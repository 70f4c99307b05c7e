package vectorizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "hello world", []string{"hello", "world"}},
		{"single chars dropped", "a b cd", []string{"cd"}},
		{"punctuation splits", "main.go - VS_Code", []string{"main", "go", "VS_Code"}},
		{"digits kept", "issue 42", []string{"issue", "42"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		got := tokenize(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: tokenize(%q) = %v, want %v", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestPreprocessStripsAccentsAndLowercases(t *testing.T) {
	got := preprocess("Café RÉSUMÉ\tnaïve")
	want := "cafe resume naive"
	if got != want {
		t.Fatalf("preprocess() = %q, want %q", got, want)
	}
}

func TestAnalyzeBigrams(t *testing.T) {
	got := analyze("Visual Studio Code", 2)
	want := []string{"visual", "studio", "code", "visual studio", "studio code"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("analyze() = %v, want %v", got, want)
	}
}

func TestAnalyzeUnigramsOnly(t *testing.T) {
	got := analyze("Visual Studio Code", 1)
	want := []string{"visual", "studio", "code"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("analyze() = %v, want %v", got, want)
	}
}

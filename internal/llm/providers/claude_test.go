package providers

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"object", `{"keywords": ["Go", "Kubernetes"]}`, []string{"Go", "Kubernetes"}, false},
		{"fenced object", "```json\n{\"keywords\": [\"SQL\"]}\n```", []string{"SQL"}, false},
		{"bare array", `["Terraform", "AWS"]`, []string{"Terraform", "AWS"}, false},
		{"plain fence", "```\n[\"Rust\"]\n```", []string{"Rust"}, false},
		{"prose", "Here are the keywords: Go, SQL", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeywords(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseProfile(t *testing.T) {
	raw, err := parseProfile("```json\n{\"skills\": [\"Go\"], \"work_experience\": []}\n```")
	if err != nil {
		t.Fatalf("parseProfile: %v", err)
	}
	if _, ok := raw["skills"]; !ok {
		t.Errorf("skills missing from %v", raw)
	}

	if _, err := parseProfile(`["not", "an", "object"]`); err == nil {
		t.Error("expected an error for a non-object answer")
	}
}

func TestPromptsCarryContent(t *testing.T) {
	if p := buildKeywordPrompt("Senior Go engineer"); !strings.Contains(p, "Senior Go engineer") {
		t.Error("keyword prompt lost the job description")
	}
	if p := buildProfilePrompt("Jane Doe, Acme 2020-2023"); !strings.Contains(p, "Acme 2020-2023") {
		t.Error("profile prompt lost the CV text")
	}
}


package digest

import "testing"

func TestRelevant(t *testing.T) {
	keywords := []string{"bitcoin", "ETH", "stablecoin"}

	tests := []struct {
		name    string
		title   string
		summary string
		want    bool
	}{
		{
			name:  "keyword in title",
			title: "Bitcoin breaks new ground",
			want:  true,
		},
		{
			name:    "keyword in summary only",
			title:   "Markets wrap",
			summary: "A quiet day except for one stablecoin issuer.",
			want:    true,
		},
		{
			name:  "case-insensitive",
			title: "BITCOIN slides",
			want:  true,
		},
		{
			name:  "substring match inside larger word",
			title: "Ethereum upgrade ships",
			want:  true, // "eth" matches inside "Ethereum"; accepted tradeoff
		},
		{
			name:  "substring false positive is accepted",
			title: "New methane rules announced",
			want:  true, // "eth" inside "methane"
		},
		{
			name:    "no keyword anywhere",
			title:   "Local sports roundup",
			summary: "The home team won.",
			want:    false,
		},
		{
			name: "empty inputs",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.title, tt.summary, keywords); got != tt.want {
				t.Errorf("Relevant(%q, %q) = %v, want %v", tt.title, tt.summary, got, tt.want)
			}
		})
	}
}

func TestRelevant_NoKeywords(t *testing.T) {
	if Relevant("Bitcoin rally", "", nil) {
		t.Error("Relevant with empty keyword set should be false")
	}
	if Relevant("Bitcoin rally", "", []string{""}) {
		t.Error("empty-string keywords must not match everything")
	}
}

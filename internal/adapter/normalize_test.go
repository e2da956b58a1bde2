package adapter

import "testing"

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tags",
			in:   "<p>Build <b>APIs</b> in Go</p>",
			want: "Build APIs in Go",
		},
		{
			name: "unescapes entities",
			in:   "&lt;p&gt;Senior &amp; Staff roles&lt;/p&gt;",
			want: "Senior & Staff roles",
		},
		{
			name: "collapses whitespace",
			in:   "one\n\n  two\tthree",
			want: "one two three",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.in); got != tt.want {
				t.Errorf("extractText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSalary(t *testing.T) {
	tests := []struct {
		name     string
		min, max int64
		currency string
		want     string
	}{
		{"full range", 90000, 120000, "$", "$90000 - $120000"},
		{"min only", 90000, 0, "$", "$90000+"},
		{"max only", 0, 120000, "€", "up to €120000"},
		{"none", 0, 0, "$", ""},
		{"default currency", 50000, 60000, "", "$50000 - $60000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSalary(tt.min, tt.max, tt.currency); got != tt.want {
				t.Errorf("formatSalary(%d, %d, %q) = %q, want %q", tt.min, tt.max, tt.currency, got, tt.want)
			}
		})
	}
}

func TestMapEmploymentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"full_time", "Full-time"},
		{"Full-time", "Full-time"},
		{"FULL TIME", "Full-time"},
		{"part-time", "Part-time"},
		{"contract", "Contract"},
		{"freelance", "Contract"},
		{"temporary", "Contract"},
		{"internship", "Internship"},
		{"intern", "Internship"},
		{"", ""},
		{"volunteer", ""},
	}
	for _, tt := range tests {
		if got := mapEmploymentType(tt.in); got != tt.want {
			t.Errorf("mapEmploymentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagRemote(t *testing.T) {
	if got := tagRemote(""); got != "Remote" {
		t.Errorf("tagRemote(\"\") = %q", got)
	}
	if got := tagRemote("Berlin"); got != "Remote - Berlin" {
		t.Errorf("tagRemote(Berlin) = %q", got)
	}
	if got := tagRemote("Remote, USA"); got != "Remote, USA" {
		t.Errorf("tagRemote should not double-tag, got %q", got)
	}
}

func TestMatchesLocations(t *testing.T) {
	if !matchesLocations("Berlin, Germany", nil) {
		t.Error("empty location list should match everything")
	}
	if !matchesLocations("Remote - Anywhere", []string{"New York"}) {
		t.Error("remote posting should match any requested location")
	}
	if !matchesLocations("New York, NY", []string{"new york"}) {
		t.Error("matching should be case-insensitive")
	}
	if matchesLocations("London, UK", []string{"New York"}) {
		t.Error("non-matching onsite location should fail")
	}
}

package core

import "testing"

func TestNormalizeLogo(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"drive share link", "https://drive.google.com/file/d/ABC123/view?usp=sharing", "https://lh3.googleusercontent.com/d/ABC123"},
		{"drive uc link", "https://drive.google.com/uc?export=view&id=XYZ_9", "https://lh3.googleusercontent.com/d/XYZ_9"},
		{"drive open link", "https://drive.google.com/open?id=Q1&authuser=0", "https://lh3.googleusercontent.com/d/Q1"},
		{"inline payload", "data:image/png;base64,xyz", "data:image/png;base64,xyz"},
		{"inline payload containing id=", "data:image/png;base64,id=abc", "data:image/png;base64,id=abc"},
		{"plain url", "https://example.com/logo.png", "https://example.com/logo.png"},
		{"file/d without trailing slash", "https://drive.google.com/file/d/ABC123", "https://drive.google.com/file/d/ABC123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLogo(tc.in); got != tc.want {
				t.Fatalf("NormalizeLogo(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCompanyProfileLogoURL(t *testing.T) {
	p := CompanyProfile{Logo: "https://drive.google.com/file/d/ABC123/view"}
	if p.LogoURL() != "https://lh3.googleusercontent.com/d/ABC123" {
		t.Fatalf("LogoURL = %q", p.LogoURL())
	}
	if !IsInlineLogo("data:image/png;base64,xyz") || IsInlineLogo("https://x") {
		t.Fatalf("IsInlineLogo misclassified")
	}
}

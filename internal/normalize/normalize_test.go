package normalize

import "testing"

func TestHasExtension(t *testing.T) {
	cases := map[string]bool{
		"/sitemap.xml":       true,
		"/a/b/report.tar.gz": true,
		"/.htaccess":         true,
		"/a.b/c":             false,
		"/trailing.":         false,
		"/docs":              false,
		"":                   false,
		"/":                  false,
		"/a/..":              false,
		"robots.txt":         true,
		"/%C3%A4%C3%9F.html": true,
		"/version/1.2/notes": false,
		"/version/1.2":       true,
	}

	for input, expected := range cases {
		if got := HasExtension(input); got != expected {
			t.Fatalf("HasExtension(%q) expected %v, got %v", input, expected, got)
		}
	}
}

func TestAppendSlash(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"/":      "/",
		"/a":     "/a/",
		"/a/":    "/a/",
		"/a%2Fb": "/a%2Fb/",
	}

	for input, expected := range cases {
		if got := AppendSlash(input); got != expected {
			t.Fatalf("AppendSlash(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestLowerASCII(t *testing.T) {
	cases := map[string]string{
		"/invalId/":      "/invalid/",
		"/already/lower": "/already/lower",
		"/%C3%84BC":      "/%C3%84bc",
		"/%c3%a4":        "/%c3%a4",
		"/äß&/":          "/äß&/",
		"/ÄB":            "/Äb",
		"/100%":          "/100%",
		"/50%ZZ":         "/50%zz",
		"":               "",
	}

	for input, expected := range cases {
		if got := LowerASCII(input); got != expected {
			t.Fatalf("LowerASCII(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestLowerUnicode(t *testing.T) {
	cases := map[string]string{
		"/invalId/":     "/invalid/",
		"/%C3%84bc/":    "/%C3%A4bc/",
		"/%C3%A4bc/":    "/%C3%A4bc/",
		"/ÄB/x":         "/%C3%A4b/x",
		"/a%2FB":        "/a%2Fb",
		"/A%2fB/C":      "/a%2fb/c",
		"/%C3%84;X":     "/%C3%A4;x",
		"/x'Y":          "/x'y",
		"/%c3%84%c3%a4": "/%C3%A4%c3%a4",
		"/a:B@c!$&=+,":  "/a:b@c!$&=+,",
		"/keep/%zz":     "/keep/%zz",
		"/BAD/%zzX":     "/bad/%zzx",
		"/%FF":          "/%FF",
		"/%FFA":         "/%FFa",
	}

	for input, expected := range cases {
		if got := LowerUnicode(input); got != expected {
			t.Fatalf("LowerUnicode(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestLowerIsIdempotent(t *testing.T) {
	inputs := []string{"/ÄB/Ünïcode", "/%C3%84/X", "/a%2FB/C", "/plain"}
	for _, mode := range []Mode{ModeASCII, ModeUnicode} {
		for _, input := range inputs {
			once := Lower(input, mode)
			twice := Lower(once, mode)
			if once != twice {
				t.Fatalf("%s: Lower(%q) not idempotent: %q then %q", mode, input, once, twice)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(""); err != nil || mode != ModeASCII {
		t.Fatalf("expected ascii default, got %q (%v)", mode, err)
	}
	if mode, err := ParseMode("Unicode"); err != nil || mode != ModeUnicode {
		t.Fatalf("expected unicode, got %q (%v)", mode, err)
	}
	if _, err := ParseMode("turkish"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

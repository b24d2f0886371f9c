package parse

import "testing"

func TestStrip(t *testing.T) {
	p := Strip()
	if v, ok := p.Parse("  1.2.3.4\n"); !ok || v != "1.2.3.4" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
	if _, ok := p.Parse("   \n\t"); ok {
		t.Fatal("all-whitespace body should parse to nothing")
	}
	if p.Name() != "strip" {
		t.Fatalf("name: %q", p.Name())
	}
}

func TestRegexp(t *testing.T) {
	p, err := Regexp(`version (\d+\.\d+)`)
	if err != nil {
		t.Fatalf("Regexp: %v", err)
	}
	if v, ok := p.Parse("now running version 2.7 (stable)"); !ok || v != "2.7" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
	if _, ok := p.Parse("nothing here"); ok {
		t.Fatal("no match should parse to nothing")
	}
}

func TestRegexpWholeMatchWithoutGroups(t *testing.T) {
	p, err := Regexp(`\d+\.\d+\.\d+\.\d+`)
	if err != nil {
		t.Fatalf("Regexp: %v", err)
	}
	if v, ok := p.Parse("your ip: 10.0.0.7 thanks"); !ok || v != "10.0.0.7" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
}

func TestRegexpBadPattern(t *testing.T) {
	if _, err := Regexp(`(unclosed`); err == nil {
		t.Fatal("bad pattern must be rejected")
	}
}

func TestRegexpNameIncludesPattern(t *testing.T) {
	a, _ := Regexp(`a(\d)`)
	b, _ := Regexp(`b(\d)`)
	if a.Name() == b.Name() {
		t.Fatal("different patterns must cache under different names")
	}
}

func TestCSS(t *testing.T) {
	p, err := CSS("h1.title")
	if err != nil {
		t.Fatalf("CSS: %v", err)
	}
	html := `<html><body><h1 class="title"> Breaking News </h1><h1 class="title">second</h1></body></html>`
	if v, ok := p.Parse(html); !ok || v != "Breaking News" {
		t.Fatalf("got (%q, %v)", v, ok)
	}
	if _, ok := p.Parse("<html><body><p>no headline</p></body></html>"); ok {
		t.Fatal("missing node should parse to nothing")
	}
}

func TestCSSEmptyNodeParsesToNothing(t *testing.T) {
	p, err := CSS("span")
	if err != nil {
		t.Fatalf("CSS: %v", err)
	}
	if _, ok := p.Parse("<html><body><span>   </span></body></html>"); ok {
		t.Fatal("whitespace-only node should parse to nothing")
	}
}

func TestCSSBadSelector(t *testing.T) {
	if _, err := CSS("h1[["); err == nil {
		t.Fatal("bad selector must be rejected at construction")
	}
}

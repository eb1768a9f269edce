package songini

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleScript = "[General]\r\n" +
	"Title=Caf\xe9 Song\r\n" +
	"Artist = Someone\r\n" +
	"\r\n" +
	"[Eff1]\r\n" +
	"ID=1\r\n" +
	"Text=Hello\r\n" +
	"\r\n" +
	"[EFF2]\r\n" +
	"id = 999\r\n" +
	"\r\n" +
	"[Verse]\r\n" +
	"Line1=la la\r\n"

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(sampleScript))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var names []string
	for _, s := range doc.Sections {
		names = append(names, s.Name)
	}
	if want := []string{"General", "Eff1", "EFF2", "Verse"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("sections: got %v, want %v", names, want)
	}

	general := doc.Section("general")
	if general == nil {
		t.Fatal("missing General section")
	}
	if v, _ := general.Get("title"); v != "Café Song" {
		t.Errorf("Title: got %q", v)
	}
	if v, _ := general.Get("ARTIST"); v != "Someone" {
		t.Errorf("Artist: got %q", v)
	}
	if got := general.Keys(); !reflect.DeepEqual(got, []string{"Title", "Artist"}) {
		t.Errorf("Keys: got %v", got)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(out) != sampleScript {
		t.Errorf("unmodified document did not round trip:\n%q", out)
	}
}

func TestFilterEffects(t *testing.T) {
	doc, err := Decode([]byte(sampleScript))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	removed, err := FilterEffects(doc, DefaultEffects)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"EFF2"}) {
		t.Fatalf("removed: got %v, want [EFF2]", removed)
	}

	want := "[General]\r\n" +
		"Title=Caf\xe9 Song\r\n" +
		"Artist = Someone\r\n" +
		"\r\n" +
		"[Eff1]\r\n" +
		"ID=1\r\n" +
		"Text=Hello\r\n" +
		"\r\n" +
		"[Verse]\r\n" +
		"Line1=la la\r\n"
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(out) != want {
		t.Errorf("filtered document:\ngot  %q\nwant %q", out, want)
	}

	// A second pass removes nothing.
	removed, err = FilterEffects(doc, DefaultEffects)
	if err != nil {
		t.Fatalf("second filter: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("second pass removed %v", removed)
	}
}

func TestFilterEffectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"MissingID", "[Eff1]\nText=x\n"},
		{"NonInteger", "[effect]\nid=abc\n"},
		{"Empty", "[Eff3]\nid=\n"},
		{"Continuation", "[Eff4]\nid=51\n  more\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.script)
			before := doc.String()

			_, err := FilterEffects(doc, DefaultEffects)
			if !errors.Is(err, ErrMalformedEffectSection) {
				t.Fatalf("expected ErrMalformedEffectSection, got %v", err)
			}
			var se *EffectSectionError
			if !errors.As(err, &se) {
				t.Fatalf("expected *EffectSectionError, got %T", err)
			}
			if doc.String() != before {
				t.Errorf("document modified on error")
			}
		})
	}
}

func TestNonEffectSectionsIgnored(t *testing.T) {
	// "Effects" starts with "eff"; "Coeff" and "Background" do not.
	doc := Parse("[Coeff]\nid=oops\n[Background]\nFile=a.jpg\n[effects]\nid=62\n")
	removed, err := FilterEffects(doc, DefaultEffects)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("removed: %v", removed)
	}
	if len(doc.Sections) != 3 {
		t.Errorf("sections: got %d, want 3", len(doc.Sections))
	}
}

func TestRewrite(t *testing.T) {
	script := "; generated\n[Eff51]\nid=51\n[Eff99]\nid=99\n[Eff53]\nID=53"
	out, removed, err := Rewrite([]byte(script), DefaultEffects)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"Eff99"}) {
		t.Errorf("removed: got %v", removed)
	}
	if want := "; generated\n[Eff51]\nid=51\n[Eff53]\nID=53"; string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}

	// Extra ids widen the kept set.
	out, removed, err = Rewrite([]byte(script), DefaultEffects.With(99))
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if len(removed) != 0 || string(out) != script {
		t.Errorf("expected no changes, removed %v", removed)
	}
}

func TestWindows1252(t *testing.T) {
	// 0x80 is the euro sign, 0x93/0x94 are curly quotes.
	raw := []byte("[General]\nTitle=\x80 \x93q\x94\n")
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	title, _ := doc.Sections[0].Get("title")
	if !strings.HasPrefix(title, "€ ") || !strings.Contains(title, "“q”") {
		t.Errorf("title decoded as %q", title)
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("got %q, want %q", out, raw)
	}
}

func TestUndefinedBytesRejected(t *testing.T) {
	for _, b := range []byte{0x81, 0x8d, 0x8f, 0x90, 0x9d} {
		raw := []byte("[A]\nk=\x00\n[Eff9]\nid=9\n")
		raw[6] = b

		if _, err := Decode(raw); !errors.Is(err, ErrEncoding) {
			t.Errorf("byte 0x%02x: expected ErrEncoding from Decode, got %v", b, err)
		}
		if _, _, err := Rewrite(raw, DefaultEffects.With(9)); !errors.Is(err, ErrEncoding) {
			t.Errorf("byte 0x%02x: expected ErrEncoding when nothing is removed, got %v", b, err)
		}
		if _, _, err := Rewrite(raw, DefaultEffects); !errors.Is(err, ErrEncoding) {
			t.Errorf("byte 0x%02x: expected ErrEncoding when a section is removed, got %v", b, err)
		}
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		doc := Parse("")
		if len(doc.Sections) != 0 || doc.String() != "" {
			t.Errorf("unexpected content")
		}
	})

	t.Run("Preamble", func(t *testing.T) {
		doc := Parse("# comment\n\n[A]\nk=v\n")
		if len(doc.Sections) != 1 || doc.String() != "# comment\n\n[A]\nk=v\n" {
			t.Errorf("preamble not kept: %q", doc.String())
		}
	})

	t.Run("ColonSeparatorAndLastWins", func(t *testing.T) {
		doc := Parse("[A]\nid: 1\nid = 2\n")
		if v, _ := doc.Sections[0].Get("id"); v != "2" {
			t.Errorf("got %q, want 2", v)
		}
	})

	t.Run("UniformlyIndentedKeys", func(t *testing.T) {
		out, removed, err := Rewrite([]byte("[Eff1]\n  id=99\n  Text=x\n[Eff2]\n  id=1\n"), DefaultEffects)
		if err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		if !reflect.DeepEqual(removed, []string{"Eff1"}) {
			t.Errorf("removed: got %v, want [Eff1]", removed)
		}
		if string(out) != "[Eff2]\n  id=1\n" {
			t.Errorf("got %q", out)
		}

		doc := Parse("[Eff1]\n  Text=x\n  id=1\n")
		removed, err = FilterEffects(doc, DefaultEffects)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if len(removed) != 0 || len(doc.Sections) != 1 {
			t.Errorf("section not kept, removed %v", removed)
		}
		if v, _ := doc.Sections[0].Get("text"); v != "x" {
			t.Errorf("Text: got %q", v)
		}
	})

	t.Run("DeeperIndentContinues", func(t *testing.T) {
		doc := Parse("[A]\n  k=one\n\n    two\n  j=3\n")
		if v, _ := doc.Sections[0].Get("k"); v != "one\ntwo" {
			t.Errorf("k: got %q", v)
		}
		if v, _ := doc.Sections[0].Get("j"); v != "3" {
			t.Errorf("j: got %q", v)
		}
	})

	t.Run("DefaultSectionInherited", func(t *testing.T) {
		doc := Parse("[Eff1]\nText=a\n[DEFAULT]\nid=99\n[Eff2]\nid=51\n[Background]\nFile=b.jpg\n")
		if v, ok := doc.Section("Background").Get("id"); !ok || v != "99" {
			t.Errorf("inherited id: got %q, %v", v, ok)
		}
		removed, err := FilterEffects(doc, DefaultEffects)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if !reflect.DeepEqual(removed, []string{"Eff1"}) {
			t.Errorf("removed: got %v, want [Eff1]", removed)
		}
		if doc.Section("DEFAULT") == nil {
			t.Error("DEFAULT section removed")
		}
	})

	t.Run("BracketsNotAHeader", func(t *testing.T) {
		doc := Parse("[]\n[A]\n")
		if len(doc.Sections) != 1 || doc.Sections[0].Name != "A" {
			t.Errorf("sections: %+v", doc.Sections)
		}
	})
}

func TestEffectSet(t *testing.T) {
	if got := DefaultEffects.IDs(); !reflect.DeepEqual(got, []int{1, 2, 21, 51, 53, 61, 62}) {
		t.Errorf("DefaultEffects: got %v", got)
	}
	extended := DefaultEffects.With(7)
	if !extended.Contains(7) || DefaultEffects.Contains(7) {
		t.Errorf("With must not modify the receiver")
	}
}

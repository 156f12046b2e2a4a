package telephony

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestSpeakAndGather(t *testing.T) {
	out, err := SpeakAndGather("Hello there", "/call/webhook")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`input="speech"`,
		`action="/call/webhook"`,
		`method="POST"`,
		`speechTimeout="auto"`,
		"Hello there",
		"<Hangup>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("twiml missing %q:\n%s", want, out)
		}
	}
	assertWellFormed(t, out)
}

func TestSpeakAndHangup_EscapesText(t *testing.T) {
	out, err := SpeakAndHangup(`The fee is <£4000> & "all-inclusive"`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<£4000>") {
		t.Fatal("special characters must be escaped")
	}
	assertWellFormed(t, out)
}

func TestFallbackTwiML(t *testing.T) {
	out := FallbackTwiML()
	if !strings.Contains(out, "apologize") || !strings.Contains(out, "<Hangup>") {
		t.Fatalf("unexpected fallback twiml:\n%s", out)
	}
	assertWellFormed(t, out)
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	var resp struct {
		XMLName xml.Name `xml:"Response"`
	}
	if err := xml.Unmarshal([]byte(doc), &resp); err != nil {
		t.Fatalf("twiml not well-formed: %v\n%s", err, doc)
	}
}

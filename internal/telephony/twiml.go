package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder for the voice loop. It intentionally avoids
// any provider SDK dependency; only the verbs the conversation flow
// needs are modeled.

const sayVoice = "alice"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	Say           *twimlSay
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// SpeakAndGather speaks the utterance inside a speech Gather so the
// caller's reply posts back to actionURL as SpeechResult.
func SpeakAndGather(utterance, actionURL string) (string, error) {
	return render(twimlResponse{Verbs: []any{
		twimlGather{
			Input:         "speech",
			Action:        actionURL,
			Method:        "POST",
			SpeechTimeout: "auto",
			Timeout:       5,
			Say:           &twimlSay{Voice: sayVoice, Text: utterance},
		},
		// Reached when the caller stays silent past the timeout.
		twimlSay{Voice: sayVoice, Text: "Thank you for your time. Goodbye!"},
		twimlHangup{},
	}})
}

// SpeakAndHangup speaks the final utterance and ends the call.
func SpeakAndHangup(utterance string) (string, error) {
	return render(twimlResponse{Verbs: []any{
		twimlSay{Voice: sayVoice, Text: utterance},
		twimlPause{Length: 1},
		twimlHangup{},
	}})
}

// FallbackTwiML is served when the conversation pipeline itself fails.
// The call always receives well-formed markup.
func FallbackTwiML() string {
	out, err := SpeakAndHangup("I apologize, we are experiencing a technical issue. We will follow up with you shortly. Goodbye!")
	if err != nil {
		// Static input cannot fail to encode.
		return xml.Header + "<Response><Hangup/></Response>"
	}
	return out
}

func render(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

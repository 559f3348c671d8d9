package twiml

import (
	"encoding/xml"
	"fmt"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Say speaks text to the caller.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Gather opens a speech-recognition window. Twilio POSTs the recognized
// utterance to Action as SpeechResult when the caller stops talking.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Say           *Say     `xml:"Say,omitempty"`
}

// Redirect sends the call to another webhook.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is a TwiML document. Verbs execute in order.
type Response struct {
	Verbs []any
}

func (r *Response) Say(text string) *Response {
	r.Verbs = append(r.Verbs, Say{Text: text})
	return r
}

func (r *Response) GatherSpeech(action, prompt string) *Response {
	g := Gather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		SpeechTimeout: "auto",
	}
	if prompt != "" {
		g.Say = &Say{Text: prompt}
	}
	r.Verbs = append(r.Verbs, g)
	return r
}

func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{URL: url})
	return r
}

func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

// Render serializes the document with the standard TwiML XML header.
func (r *Response) Render() ([]byte, error) {
	body, err := xml.MarshalIndent(r, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TwiML: %w", err)
	}
	return append([]byte(header), body...), nil
}

// MarshalXML flattens the verb slice so the elements appear directly
// under <Response> in insertion order.
func (r *Response) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Response"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, v := range r.Verbs {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// New returns an empty TwiML response.
func New() *Response {
	return &Response{}
}

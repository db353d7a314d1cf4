// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"text/template"
)

// BibliographySentinel is the literal reply the chat guardrail demands when
// a user asks for a bibliography. Clients detect it and open the
// bibliography builder instead of showing text.
const BibliographySentinel = "BIBLIOGRAPHY_REQUEST_DETECTED"

// maxPromptText caps user text embedded in a prompt, in runes.
const maxPromptText = 12000

const chatGuardrail = `You are the research assistant inside a citation manager.
Only help with research, finding and evaluating sources, citation styles, academic writing, and questions about the user's saved sources.
If a request is unrelated to those topics, politely decline in one sentence.
If the user asks you to create, write, generate, or format a bibliography, reference list, or works cited list, reply with exactly ` + BibliographySentinel + ` and nothing else.`

const ocrInstruction = `Extract ALL text from this image exactly as it appears.
Transcribe every cell of every table and every character, including headers, footnotes, and numbers.
Do not stop early, do not summarize, and do not add commentary.
Preserve line breaks and keep table rows on separate lines with cells separated by " | ".`

var chatPromptTmpl = template.Must(template.New("chat").Parse(`{{if .Context}}Context from the user's sources:
{{.Context}}

{{end}}Question:
{{.Message}}`))

var tagsPromptTmpl = template.Must(template.New("tags").Parse(`Extract 3 to 5 short topic tags that describe the following text.
Use lowercase words or short phrases drawn from the text's own vocabulary.
Respond with ONLY a JSON array of strings, for example ["machine learning", "ethics"]. Do not include any other text.

Text:
{{.Text}}`))

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize the following text in 2-3 sentences. State its main point plainly and do not add information that is not in the text.

Text:
{{.Text}}`))

var enhancePromptTmpl = template.Must(template.New("enhance").Parse(`You are completing citation metadata for a web page.
URL: {{.URL}}
{{- if .Title}}
Title: {{.Title}}{{end}}
{{- if .Author}}
Author: {{.Author}}{{end}}
{{- if .PublishDate}}
Publish date: {{.PublishDate}}{{end}}
{{- if .SiteName}}
Site: {{.SiteName}}{{end}}
{{- if .PageText}}

Page text excerpt:
{{.PageText}}{{end}}

Identify the title, the author or authors (people or, failing that, the publishing organization), the publication date (YYYY-MM-DD, YYYY-MM, or YYYY), the site or publication name, and a one-sentence description.
Use an empty string for anything you cannot determine from the information given. Do not invent authors or dates.
Respond with ONLY a JSON object: {"title": "", "author": "", "publishDate": "", "siteName": "", "description": ""}`))

var guessPromptTmpl = template.Must(template.New("guess").Parse(`The web page at this URL could not be downloaded:
{{.URL}}

From the URL alone (domain, path, slug words, any dates in the path), give your best estimate of its citation metadata.
Use an empty string for anything the URL does not indicate. Do not invent authors.
Respond with ONLY a JSON object: {"title": "", "author": "", "publishDate": "", "siteName": "", "description": ""}`))

var videoPromptTmpl = template.Must(template.New("video").Parse(`Infer missing citation details for this online video.
URL: {{.URL}}
Title: {{.Title}}
Channel: {{.ChannelTitle}}
{{- if .Description}}
Description: {{.Description}}{{end}}

Give the original publication year, month name, and day if they can be determined from the information above, and a one-sentence description of the video.
Use an empty string for anything you cannot determine. Do not guess a date without evidence.
Respond with ONLY a JSON object: {"publishYear": "", "publishMonth": "", "publishDay": "", "description": ""}`))

// render executes tmpl with data.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

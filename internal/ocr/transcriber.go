package ocr

import "strings"

// Transcriber turns a receipt image into a raw text transcript. The parsing
// core consumes the transcript only; it never sees this interface.
type Transcriber interface {
	// Transcribe reads all visible text off a receipt image or PDF
	Transcribe(imageData []byte, contentType string) (string, error)
	// Close releases the transcriber's resources
	Close() error
}

// transcribePrompt is the shared prompt used by all vision providers
const transcribePrompt = `You are transcribing a grocery receipt. Read every line of text visible in the image and return it exactly as printed, one receipt line per output line, top to bottom.

Important:
- Preserve the original line breaks: each printed line of the receipt is one line of output
- Keep prices, quantities, weights, and tax markers exactly as they appear
- Do not correct spelling, do not summarize, do not annotate
- Return plain text only, with no markdown code blocks and no commentary`

// cleanTranscript strips the markdown fences vision models sometimes wrap
// around their output despite the prompt
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

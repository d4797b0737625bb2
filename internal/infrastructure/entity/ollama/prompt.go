package ollama

// buildEntityPrompt caps the receipt text so a pathological OCR blob cannot
// blow the model's context window.
func buildEntityPrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a receipt analyst.
Return strict JSON object with keys:
entities (array of objects with keys label, phrase, confidence from 0 to 1), key_phrases (array of strings).
Allowed labels: ORGANIZATION, COMMERCIAL_ITEM, LOCATION, DATE, QUANTITY, OTHER.
No markdown, no extra keys.

Receipt text:
` + snippet
}

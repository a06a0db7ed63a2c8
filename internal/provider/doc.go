// Package provider abstracts the language-model backends behind a single
// Generate call.
//
// Backends implement Provider; Chain composes them into an ordered
// fallback that returns the first non-empty reply. A backend failure is
// always an explicit error attributed to the provider that produced it.
// No adapter fabricates content: when the whole chain fails, the caller
// decides how to degrade, usually with FallbackReply.
//
// Two backends ship today: an OpenAI-compatible chat completions client
// and a Gemini client over google.golang.org/genai.
package provider

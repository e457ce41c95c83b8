// Package openai implements the chat adapter for the OpenAI API and the
// many providers that speak its chat-completions dialect (OpenRouter,
// Groq, DeepSeek, Mistral, LM Studio, and most self-hosted gateways).
// Responses stream over SSE with the [DONE] sentinel; vision input is
// encoded as content parts with inlined base64 data URLs; image generation
// is exposed through the Paint capability.
package openai

package ai

import "strings"

// Normalize canonicalizes a heterogeneous message list into a sequence safe
// to send to any provider: blank messages are stripped, system segments are
// merged into a single leading system message, directly-consecutive
// same-role messages are joined, and the sequence never starts with an
// assistant turn. The input is treated as immutable; a new slice is
// returned. Normalize is pure, deterministic, and idempotent.
func Normalize(messages []Message) []Message {
	if len(messages) == 0 {
		return nil
	}

	kept := dropBlank(messages)
	if len(kept) == 0 {
		// Stripping everything would leave no conversation at all; keep the
		// final message even though it is blank.
		kept = []Message{messages[len(messages)-1]}
	}

	normalized := liftSystem(kept)
	normalized = mergeConsecutive(normalized)
	normalized = fixLeadingAssistant(normalized)

	return normalized
}

// dropBlank removes messages that carry no text, attachments, or tool calls.
func dropBlank(messages []Message) []Message {
	var kept []Message
	for _, message := range messages {
		if message.HasContent() {
			kept = append(kept, message)
		}
	}
	return kept
}

// liftSystem merges every system message into a single leading system
// segment, preserving the relative order of the remaining messages.
func liftSystem(messages []Message) []Message {
	var systemParts []string
	var rest []Message

	for _, message := range messages {
		if message.Role == RoleSystem {
			if trimmed(message.Content) != "" {
				systemParts = append(systemParts, message.Content)
			}
			continue
		}
		rest = append(rest, message)
	}

	if len(systemParts) == 0 {
		// No system segment, or the sole kept message is a blank system one.
		if len(rest) == 0 && len(messages) > 0 {
			return messages[:1:1]
		}
		return rest
	}

	out := make([]Message, 0, len(rest)+1)
	out = append(out, Message{Role: RoleSystem, Content: strings.Join(systemParts, "\n\n")})
	out = append(out, rest...)
	return out
}

// mergeConsecutive joins directly-consecutive same-role messages with a
// double newline, concatenating attachments in order. Tool messages are
// never merged: each answers a distinct tool call.
func mergeConsecutive(messages []Message) []Message {
	var merged []Message

	for _, message := range messages {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.Role == message.Role && message.Role != RoleTool && len(message.ToolCalls) == 0 && len(last.ToolCalls) == 0 {
				last.Content = joinContent(last.Content, message.Content)
				last.Attachments = append(last.Attachments, message.Attachments...)
				continue
			}
		}
		merged = append(merged, copyMessage(message))
	}

	return merged
}

// fixLeadingAssistant enforces the first-message invariant: the first
// message after an optional leading system segment must not be an assistant
// turn. A lone assistant message becomes a quoted user message; an assistant
// message followed by more conversation gets a synthesized quoted user
// message in front of it.
func fixLeadingAssistant(messages []Message) []Message {
	first := 0
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		first = 1
	}

	if first >= len(messages) || messages[first].Role != RoleAssistant {
		return messages
	}

	quoted := Message{Role: RoleUser, Content: QuoteLines(messages[first].Content)}

	if first == len(messages)-1 && first == 0 {
		// The whole conversation is one assistant message; replace it.
		out := make([]Message, len(messages))
		copy(out, messages)
		out[first] = quoted
		return out
	}

	out := make([]Message, 0, len(messages)+1)
	out = append(out, messages[:first]...)
	out = append(out, quoted)
	out = append(out, messages[first:]...)
	return out
}

// QuoteLines prefixes every line of content with "> ", producing a
// markdown-quoted block terminated by a newline.
func QuoteLines(content string) string {
	var quoted strings.Builder
	for _, line := range strings.Split(content, "\n") {
		quoted.WriteString("> ")
		quoted.WriteString(line)
		quoted.WriteString("\n")
	}
	return quoted.String()
}

// SplitSystemPrompt separates an optional leading system message from the
// rest of a normalized conversation, matching the ChatRequest shape where
// the system prompt travels in its own field.
func SplitSystemPrompt(messages []Message) (systemPrompt string, rest []Message) {
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

func joinContent(left, right string) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return left + "\n\n" + right
}

func copyMessage(message Message) Message {
	clone := message
	if len(message.Attachments) > 0 {
		clone.Attachments = append([]Attachment(nil), message.Attachments...)
	}
	if len(message.ToolCalls) > 0 {
		clone.ToolCalls = append([]ToolCall(nil), message.ToolCalls...)
	}
	return clone
}

func trimmed(content string) string {
	return strings.TrimSpace(content)
}

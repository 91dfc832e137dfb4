package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"finsight/internal/domain/chat"
)

// GroupExchanges splits a session into exchanges. Every user message opens a new exchange;
// agent messages join the open one. Agent messages before the first user message are dropped.
func GroupExchanges(messages []*chat.Message) []Exchange {
	var (
		out     []Exchange
		current *Exchange
	)

	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			if current != nil {
				out = append(out, *current)
			}
			current = &Exchange{
				SerialNumber: len(out) + 1,
				UserMessage:  plainText(msg.Content),
				AgentReplies: []AgentMessage{},
			}
		case chat.SenderAgent:
			if current == nil {
				continue
			}
			kind := msg.Type
			if kind == "" {
				kind = chat.MessageText
			}
			current.AgentReplies = append(current.AgentReplies, AgentMessage{Type: kind, Content: msg.Content})
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// Between returns the exchanges numbered start..end inclusive.
func Between(exchanges []Exchange, start, end int) []Exchange {
	var out []Exchange
	for _, e := range exchanges {
		if e.SerialNumber >= start && e.SerialNumber <= end {
			out = append(out, e)
		}
	}
	return out
}

// Transcript renders exchanges as "User: ...\nAI: ..." blocks for summarization.
// Tables, charts and formulas are reduced to short bracketed notes.
func Transcript(exchanges []Exchange) string {
	blocks := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		replies := make([]string, 0, len(e.AgentReplies))
		for _, reply := range e.AgentReplies {
			replies = append(replies, renderReply(reply))
		}
		blocks = append(blocks, "User: "+e.UserMessage+"\nAI: "+strings.Join(replies, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func renderReply(m AgentMessage) string {
	switch m.Type {
	case chat.MessageText:
		return plainText(m.Content)
	case chat.MessageTable:
		return "[Table data: " + compact(m.Content) + "]"
	case chat.MessageGraph:
		title := gjson.GetBytes(m.Content, "title").String()
		if title == "" {
			title = "Chart"
		}
		return "[Graph: " + title + "]"
	case chat.MessageLatex:
		return "[Formula: " + plainText(m.Content) + "]"
	default:
		return compact(m.Content)
	}
}

// plainText unquotes a JSON string; other content is returned as written.
func plainText(content json.RawMessage) string {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	return string(content)
}

func compact(content json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return string(content)
	}
	return buf.String()
}

package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// The completion surface is intentionally static: two fixed items,
// returned for every request regardless of document or position. Their
// numeric data values are the only state carried into resolve.

const (
	typeScriptData = 1
	javaScriptData = 2
)

// completionItems returns the fixed completion list.
func completionItems() []protocol.CompletionItem {
	return []protocol.CompletionItem{
		{
			Label: "TypeScript",
			Kind:  protocol.CompletionItemKindText,
			Data:  typeScriptData,
		},
		{
			Label: "JavaScript",
			Kind:  protocol.CompletionItemKindText,
			Data:  javaScriptData,
		},
	}
}

// resolveItem attaches detail and documentation to one of the two fixed
// items. Items with any other data value pass through unchanged.
func resolveItem(item protocol.CompletionItem) protocol.CompletionItem {
	switch itemData(item) {
	case typeScriptData:
		item.Detail = "TypeScript details"
		item.Documentation = "TypeScript documentation"
	case javaScriptData:
		item.Detail = "JavaScript details"
		item.Documentation = "JavaScript documentation"
	}
	return item
}

// itemData normalizes the item's opaque data field to an int. JSON
// round-trips deliver numbers as float64.
func itemData(item protocol.CompletionItem) int {
	switch d := item.Data.(type) {
	case float64:
		return int(d)
	case int:
		return d
	default:
		return 0
	}
}

// handleTextDocumentCompletion handles completion requests
func (s *Server) handleTextDocumentCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	result := protocol.CompletionList{
		IsIncomplete: false,
		Items:        completionItems(),
	}

	return reply(ctx, result, nil)
}

// handleCompletionItemResolve handles completionItem/resolve requests
func (s *Server) handleCompletionItemResolve(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var item protocol.CompletionItem
	if err := json.Unmarshal(req.Params(), &item); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion item")
	}

	return reply(ctx, resolveItem(item), nil)
}

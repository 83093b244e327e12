package crosscli

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultContextBudget is the default maximum number of messages carried in
// a context payload.
const DefaultContextBudget = 50

// ContextPayload is the bounded, resumable excerpt of a session's history
// handed back to a tool for continuation. Truncation is always explicit.
type ContextPayload struct {
	SessionID      string  `json:"session_id"`
	CLIName        Source  `json:"cli_name"`
	ProjectPath    string  `json:"project_path"`
	RecentMessages []Entry `json:"recent_messages"`
	Truncated      bool    `json:"truncated"`
}

// ExtractContext reconstructs a resumable payload from a session's message
// history. When the history exceeds budget messages, the oldest are dropped
// and Truncated is set; otherwise the full history is returned. A budget
// <= 0 uses DefaultContextBudget.
func ExtractContext(ctx context.Context, registry *Registry, meta SessionMeta, budget int) (*ContextPayload, error) {
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	adapter, ok := registry.Get(meta.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCLI, meta.Source)
	}

	reader, err := adapter.OpenSession(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", meta.ID, err)
	}
	defer reader.Close()

	// Ring buffer over the stream keeps only the budget most recent
	// messages in memory, whatever the history size.
	ring := make([]Entry, 0, budget)
	next := 0
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := reader.ReadNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read session %s: %w", meta.ID, err)
		}
		total++
		if len(ring) < budget {
			ring = append(ring, *entry)
		} else {
			ring[next] = *entry
			next = (next + 1) % budget
		}
	}

	messages := make([]Entry, 0, len(ring))
	messages = append(messages, ring[next:]...)
	messages = append(messages, ring[:next]...)

	return &ContextPayload{
		SessionID:      meta.ID,
		CLIName:        meta.Source,
		ProjectPath:    meta.ProjectPath,
		RecentMessages: messages,
		Truncated:      total > len(messages),
	}, nil
}

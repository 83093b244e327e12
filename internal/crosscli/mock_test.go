package crosscli

import (
	"context"
	"io"
)

// mockAdapter is a registry entry backed by fixed in-memory data.
type mockAdapter struct {
	source    Source
	installed bool
	sessions  []SessionMeta
	entries   map[string][]Entry
	listErr   error
	block     bool // ListSessions waits for ctx cancellation
}

func (m *mockAdapter) Source() Source             { return m.source }
func (m *mockAdapter) DisplayName() string        { return m.source.DisplayName() }
func (m *mockAdapter) SessionsPath(string) string { return "/mock/" + string(m.source) }

func (m *mockAdapter) Detect(context.Context) Detection {
	return Detection{Installed: m.installed, BasePath: m.SessionsPath("")}
}

func (m *mockAdapter) ListSessions(ctx context.Context) ([]SessionMeta, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sessions, nil
}

func (m *mockAdapter) OpenSession(_ context.Context, meta SessionMeta) (SessionReader, error) {
	return &mockReader{meta: meta, entries: m.entries[meta.ID]}, nil
}

type mockReader struct {
	meta    SessionMeta
	entries []Entry
	pos     int
}

func (r *mockReader) ReadNext() (*Entry, error) {
	if r.pos >= len(r.entries) {
		return nil, io.EOF
	}
	e := r.entries[r.pos]
	r.pos++
	return &e, nil
}

func (r *mockReader) Metadata() SessionMeta { return r.meta }
func (r *mockReader) Close() error          { return nil }

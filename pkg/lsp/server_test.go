package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

const testURI = "file:///test.b"

type client struct {
	t           *testing.T
	conn        *jsonrpc2.Conn
	diagnostics chan lsp.PublishDiagnosticsParams
}

// setup connects a client to a new server over an in-memory pipe.
func setup(t *testing.T) *client {
	ctx, cancel := context.WithCancel(context.Background())
	serverSide, clientSide := net.Pipe()
	serverConn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}),
		handler(newServer()))

	c := &client{t: t, diagnostics: make(chan lsp.PublishDiagnosticsParams, 10)}
	c.conn = jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(c.handle))
	t.Cleanup(func() {
		c.conn.Close()
		serverConn.Close()
		cancel()
	})
	return c
}

func (c *client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Method == "textDocument/publishDiagnostics" {
		var params lsp.PublishDiagnosticsParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			c.t.Errorf("bad diagnostics: %v", err)
		}
		c.diagnostics <- params
	}
	return nil, nil
}

func (c *client) call(method string, params, result any) error {
	return c.conn.Call(context.Background(), method, params, result)
}

func (c *client) notify(method string, params any) {
	c.t.Helper()
	if err := c.conn.Notify(context.Background(), method, params); err != nil {
		c.t.Fatalf("notify %s: %v", method, err)
	}
}

func (c *client) nextDiagnostics() []lsp.Diagnostic {
	c.t.Helper()
	select {
	case params := <-c.diagnostics:
		if params.URI != testURI {
			c.t.Errorf("diagnostics for %q, want %q", params.URI, testURI)
		}
		return params.Diagnostics
	case <-time.After(5 * time.Second):
		c.t.Fatalf("timed out waiting for diagnostics")
		return nil
	}
}

func (c *client) open(text string) {
	c.t.Helper()
	c.notify("textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: testURI, Text: text}})
}

func TestInitialize(t *testing.T) {
	c := setup(t)
	var result lsp.InitializeResult
	if err := c.call("initialize", lsp.InitializeParams{}, &result); err != nil {
		t.Fatal(err)
	}
	caps := result.Capabilities
	if !caps.HoverProvider || caps.TextDocumentSync == nil ||
		caps.TextDocumentSync.Options == nil ||
		caps.TextDocumentSync.Options.Change != lsp.TDSKFull {
		t.Errorf("unexpected capabilities %+v", caps)
	}
}

func TestUnknownMethod(t *testing.T) {
	c := setup(t)
	err := c.call("textDocument/completion", struct{}{}, nil)
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("got error %v, want method not found", err)
	}
}

func TestDiagnostics(t *testing.T) {
	c := setup(t)

	c.open("+]\n[")
	want := []lsp.Diagnostic{
		{
			Range: lsp.Range{
				Start: lsp.Position{Line: 0, Character: 1},
				End:   lsp.Position{Line: 0, Character: 2}},
			Severity: lsp.Error, Source: "parse",
			Message: "unbalanced brackets: ']' has no matching '['",
		},
		{
			Range: lsp.Range{
				Start: lsp.Position{Line: 1, Character: 0},
				End:   lsp.Position{Line: 1, Character: 1}},
			Severity: lsp.Error, Source: "parse",
			Message: "unbalanced brackets: '[' is never closed",
		},
	}
	if diff := cmp.Diff(want, c.nextDiagnostics()); diff != "" {
		t.Errorf("diagnostics (-want +got):\n%s", diff)
	}

	c.notify("textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument: lsp.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: testURI}},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "+[-]"}},
	})
	if diags := c.nextDiagnostics(); len(diags) != 0 {
		t.Errorf("got diagnostics %v for a valid program", diags)
	}
}

type hoverResult struct {
	Contents []struct {
		Language string `json:"language"`
		Value    string `json:"value"`
	} `json:"contents"`
	Range *lsp.Range `json:"range"`
}

func (c *client) hover(line, character int) *hoverResult {
	c.t.Helper()
	var result *hoverResult
	err := c.call("textDocument/hover", lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: testURI},
		Position:     lsp.Position{Line: line, Character: character},
	}, &result)
	if err != nil {
		c.t.Fatalf("hover: %v", err)
	}
	return result
}

func TestHover(t *testing.T) {
	c := setup(t)
	c.open("+\n[->+<]")
	c.nextDiagnostics()

	tests := []struct {
		name      string
		character int
		line      int
		want      string
		wantRange lsp.Range
	}{
		{"inside loop", 2, 1, "mul [1] += [0] * 1\nzero [0]",
			lsp.Range{Start: lsp.Position{Line: 1, Character: 0}, End: lsp.Position{Line: 1, Character: 6}}},
		{"outside loops", 0, 0, "add [0] +1\nmul [1] += [0] * 1\nzero [0]",
			lsp.Range{Start: lsp.Position{Line: 0, Character: 0}, End: lsp.Position{Line: 1, Character: 6}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := c.hover(test.line, test.character)
			if got == nil || len(got.Contents) != 1 {
				t.Fatalf("got hover %+v", got)
			}
			if got.Contents[0].Language != "ir" || got.Contents[0].Value != test.want {
				t.Errorf("got contents %+v, want IR %q", got.Contents[0], test.want)
			}
			if diff := cmp.Diff(&test.wantRange, got.Range); diff != "" {
				t.Errorf("range (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHover_NoResult(t *testing.T) {
	c := setup(t)
	if got := c.hover(0, 0); got != nil {
		t.Errorf("got hover %+v for unknown document", got)
	}

	c.open("[")
	c.nextDiagnostics()
	if got := c.hover(0, 0); got != nil {
		t.Errorf("got hover %+v for a program with errors", got)
	}

	c.notify("textDocument/didClose", lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: testURI}})
	c.open("+")
	c.nextDiagnostics()
	if got := c.hover(0, 0); got == nil || got.Contents[0].Value != "add [0] +1" {
		t.Errorf("got hover %+v after reopening", got)
	}
}

func TestPositionConversion(t *testing.T) {
	s := "a\r\nb\n🙂c"
	for idx, want := range map[int]lsp.Position{
		0: {Line: 0, Character: 0},
		1: {Line: 0, Character: 1},
		3: {Line: 1, Character: 0},
		4: {Line: 1, Character: 1},
		5: {Line: 2, Character: 0},
		9: {Line: 2, Character: 2},
	} {
		if got := lspPositionFromIdx(s, idx); got != want {
			t.Errorf("lspPositionFromIdx(%d) = %v, want %v", idx, got, want)
		}
	}
	if got := lspPositionToIdx(s, lsp.Position{Line: 2, Character: 2}); got != 9 {
		t.Errorf("lspPositionToIdx = %d, want 9", got)
	}
}

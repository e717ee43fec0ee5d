// Package mcp exposes the assistant as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/conversation"
	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/pkg/log"
)

const defaultSessionID = "mcp"

type Sessions interface {
	Get(id string) *assistant.Session
}

type DocumentLibrary interface {
	Documents() []library.Document
	IngestFile(ctx context.Context, path string) (library.Document, error)
}

type URLIngester interface {
	IngestURL(ctx context.Context, rawURL string) (library.Document, error)
}

type Server struct {
	mcp      *server.MCPServer
	sessions Sessions
	lib      DocumentLibrary
	fetcher  URLIngester
	in       io.Reader
	out      io.Writer
}

func NewServer(sessions Sessions, lib DocumentLibrary, fetcher URLIngester, in io.Reader, out io.Writer) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			core.AppName,
			core.AppVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		sessions: sessions,
		lib:      lib,
		fetcher:  fetcher,
		in:       in,
		out:      out,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask a medical question. Questions that mention the document are answered only from indexed documents."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue, defaults to a shared session")),
	), s.handleAsk)

	s.mcp.AddTool(mcp.NewTool("ingest_file",
		mcp.WithDescription("Index a local PDF, HTML, markdown or text file so questions can be answered from it"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file")),
	), s.handleIngest)

	s.mcp.AddTool(mcp.NewTool("ingest_url",
		mcp.WithDescription("Download a web page or PDF over http(s) and index it"),
		mcp.WithString("url", mcp.Required(), mcp.Description("Address of the document")),
	), s.handleIngestURL)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents with their chunk counts"),
	), s.handleListDocuments)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Export the conversation of a session"),
		mcp.WithString("session_id", mcp.Description("Session to export, defaults to the shared session")),
		mcp.WithString("format", mcp.Description("text, json or yaml"), mcp.Enum("text", "json", "yaml")),
	), s.handleHistory)
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting mcp stdio server")
	if err := server.NewStdioServer(s.mcp).Listen(ctx, s.in, s.out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := req.GetString("session_id", defaultSessionID)

	outcome, err := s.sessions.Get(id).Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(assistant.FormatError(err)), nil
	}
	return mcp.NewToolResultText(assistant.FormatResponse(outcome)), nil
}

func (s *Server) handleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.lib.IngestFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Indexed %s: %d chunks, %d tokens", doc.Name, doc.Chunks, doc.Tokens)), nil
}

func (s *Server) handleIngestURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.fetcher.IngestURL(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest %s: %v", rawURL, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Indexed %s: %d chunks, %d tokens", doc.Name, doc.Chunks, doc.Tokens)), nil
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.lib.Documents()
	if docs == nil {
		docs = []library.Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal documents: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := conversation.ParseFormat(req.GetString("format", "text"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conv := s.sessions.Get(req.GetString("session_id", defaultSessionID)).Conversation()
	out, err := conv.Export(format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if out == "" {
		out = "No messages yet."
	}
	return mcp.NewToolResultText(out), nil
}

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/library"
)

type DocsCommand struct {
	lib       DocumentLibrary
	formatter *ResponseFormatter
}

func NewDocsCommand(lib DocumentLibrary) *DocsCommand {
	return &DocsCommand{
		lib:       lib,
		formatter: NewResponseFormatter(),
	}
}

func (c *DocsCommand) Name() string {
	return "docs"
}

func (c *DocsCommand) Description() string {
	return "List indexed documents"
}

func (c *DocsCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	docs := c.lib.Documents()
	if len(docs) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Documents"),
			"No documents indexed yet. Questions are answered from general knowledge.",
			c.formatter.Tip(fmt.Sprintf("Supported files: %s", strings.Join(library.SupportedExtensions(), ", "))),
		), nil
	}

	items := make([]string, len(docs))
	for i, d := range docs {
		items[i] = describeDocument(d)
	}

	return c.formatter.Combine(
		c.formatter.Info("Documents"),
		c.formatter.List(items),
		c.formatter.Label("Chunks indexed", fmt.Sprintf("%d", c.lib.ChunkCount())),
	), nil
}

func describeDocument(d library.Document) string {
	parts := []string{fmt.Sprintf("**%s**", d.Name), d.Type}
	if d.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", d.Pages))
	}
	parts = append(parts,
		fmt.Sprintf("%d chunks", d.Chunks),
		assistant.FormatTokenCount(d.Tokens),
	)
	return strings.Join(parts, " | ")
}

type UploadCommand struct {
	lib       DocumentLibrary
	formatter *ResponseFormatter
}

func NewUploadCommand(lib DocumentLibrary) *UploadCommand {
	return &UploadCommand{
		lib:       lib,
		formatter: NewResponseFormatter(),
	}
}

func (c *UploadCommand) Name() string {
	return "upload"
}

func (c *UploadCommand) Description() string {
	return "Index a local document"
}

func (c *UploadCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Usage("/upload <path>"),
			c.formatter.Examples([]string{"/upload ~/Documents/guidelines.pdf"}),
		), nil
	}

	path := expandHome(strings.Join(args, " "))
	doc, err := c.lib.IngestFile(ctx, path)
	if err != nil {
		return "", err
	}

	return c.formatter.Combine(
		c.formatter.Success("Document indexed"),
		describeDocument(doc),
	), nil
}

type FetchCommand struct {
	fetcher   URLIngester
	formatter *ResponseFormatter
}

func NewFetchCommand(fetcher URLIngester) *FetchCommand {
	return &FetchCommand{
		fetcher:   fetcher,
		formatter: NewResponseFormatter(),
	}
}

func (c *FetchCommand) Name() string {
	return "fetch"
}

func (c *FetchCommand) Description() string {
	return "Download and index a web page or PDF"
}

func (c *FetchCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) != 1 {
		return c.formatter.Combine(
			c.formatter.Usage("/fetch <url>"),
			c.formatter.Examples([]string{"/fetch https://example.org/leaflets/ibuprofen.pdf"}),
		), nil
	}

	doc, err := c.fetcher.IngestURL(ctx, args[0])
	if err != nil {
		return "", err
	}

	return c.formatter.Combine(
		c.formatter.Success("Document indexed"),
		describeDocument(doc),
	), nil
}

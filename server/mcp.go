package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uniparse/uniparse/docstore"
	"github.com/uniparse/uniparse/extract"
)

// NewMCPServer builds an MCP server exposing the extraction pipeline as
// tools, for agent clients that prefer tool calls over HTTP.
//
// Registered tools:
//
//	uniparse_parse    — extract markdown from a stored document
//	uniparse_classify — classify a filename into a document kind
//	uniparse_formats  — list supported document kinds
func (s *Service) NewMCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "uniparse", Version: "0.1.0"}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "uniparse_parse",
		Description: "Extract markdown from an uploaded document. PDF documents require a page; Excel documents accept an optional sheet name.",
	}, s.mcpParse)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "uniparse_classify",
		Description: "Classify a filename into a document kind by its extension.",
	}, s.mcpClassify)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "uniparse_formats",
		Description: "List all supported document kinds.",
	}, s.mcpFormats)

	return srv
}

type mcpParseArgs struct {
	ID    string `json:"id" jsonschema:"document id returned by upload"`
	Page  int    `json:"page,omitempty" jsonschema:"1-based page number, PDF only"`
	Sheet string `json:"sheet,omitempty" jsonschema:"sheet name, Excel only"`
}

type mcpParseResult struct {
	Markdown string `json:"markdown"`
	Engine   string `json:"engine,omitempty"`
}

func (s *Service) mcpParse(ctx context.Context, _ *mcp.CallToolRequest, args mcpParseArgs) (*mcp.CallToolResult, mcpParseResult, error) {
	res, err := s.pipe.Parse(ctx, args.ID, extract.Request{Page: args.Page, Sheet: args.Sheet})
	if err != nil {
		return nil, mcpParseResult{}, err
	}
	return nil, mcpParseResult{Markdown: res.Markdown, Engine: res.Engine}, nil
}

type mcpClassifyArgs struct {
	Filename string `json:"filename" jsonschema:"filename to classify"`
}

type mcpClassifyResult struct {
	Kind string `json:"kind"`
}

func (s *Service) mcpClassify(_ context.Context, _ *mcp.CallToolRequest, args mcpClassifyArgs) (*mcp.CallToolResult, mcpClassifyResult, error) {
	return nil, mcpClassifyResult{Kind: string(docstore.Classify(args.Filename))}, nil
}

type mcpFormatsArgs struct{}

type mcpFormatsResult struct {
	Kinds []string `json:"kinds"`
}

func (s *Service) mcpFormats(_ context.Context, _ *mcp.CallToolRequest, _ mcpFormatsArgs) (*mcp.CallToolResult, mcpFormatsResult, error) {
	return nil, mcpFormatsResult{Kinds: []string{
		string(docstore.KindPDF),
		string(docstore.KindExcel),
		string(docstore.KindCSV),
		string(docstore.KindDocx),
		string(docstore.KindHTML),
	}}, nil
}

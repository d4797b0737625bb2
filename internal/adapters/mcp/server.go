// Package mcpadapter exposes the receipt pipeline as MCP tools over stdio.
// Agent frontends get the same extraction and naming the batch services use,
// with no database or broker behind them.
package mcpadapter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/usecase"
)

type Server struct {
	pipeline *usecase.Pipeline
	mcp      *server.MCPServer
}

func NewServer(pipeline *usecase.Pipeline, version string) *Server {
	s := &Server{pipeline: pipeline}

	srv := server.NewMCPServer("receipt-processor", version,
		server.WithToolCapabilities(false),
	)
	srv.AddTool(classifyTool(), s.handleClassify)
	srv.AddTool(filenameTool(), s.handleFilename)
	s.mcp = srv
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func classifyTool() mcp.Tool {
	return mcp.NewTool("classify_receipt",
		mcp.WithDescription("Classify raw receipt text into a spending category and extract the transaction date and total amount."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw receipt text; line breaks matter for amount extraction"),
		),
	)
}

func filenameTool() mcp.Tool {
	return mcp.NewTool("propose_receipt_filename",
		mcp.WithDescription("Build the descriptive filename a receipt file would be renamed to, from its raw text."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw receipt text"),
		),
		mcp.WithString("extension",
			mcp.Description("File extension including the dot, defaults to .jpg"),
		),
	)
}

type classification struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
}

type filenameProposal struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
}

func (s *Server) handleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	extraction, _ := s.pipeline.Evaluate(ctx, extract.Lines(text))
	return jsonResult(classification{
		Category: string(extraction.Category),
		Date:     domain.DisplayDate(extraction.Date),
		Amount:   domain.DisplayAmount(extraction.Amount),
	})
}

func (s *Server) handleFilename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ext := strings.TrimSpace(req.GetString("extension", ".jpg"))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	extraction, _ := s.pipeline.Evaluate(ctx, extract.Lines(text))
	return jsonResult(filenameProposal{
		Filename: domain.BaseName(extraction.Category, extraction.Date, extraction.Amount) + ext,
		Category: string(extraction.Category),
		Date:     domain.DisplayDate(extraction.Date),
		Amount:   domain.DisplayAmount(extraction.Amount),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(payload)), nil
}

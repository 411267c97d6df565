// Package mcpserver exposes the changelog to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ariel-frischer/changecast/internal/analysis"
	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// DefaultLimit is how many versions list_versions returns without a limit.
const DefaultLimit = 10

// Loader loads the current changelog.
type Loader interface {
	Load(ctx context.Context) (*feed.Result, error)
}

// Analyzer summarizes versions.
type Analyzer interface {
	Analyze(ctx context.Context, versions []changelog.Version) (*analysis.Result, error)
}

// Server handles the changelog tools.
type Server struct {
	loader   Loader
	analyzer Analyzer
	logger   *slog.Logger
	mcp      *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer enables analyze_changelog.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) {
		s.analyzer = a
	}
}

// WithLogger sets the logger. Logs must not go to stdout, which carries
// the protocol.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New registers the tools on a new MCP server.
func New(loader Loader, opts ...Option) *Server {
	s := &Server{loader: loader, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer("changecast", build.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcp.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("List the newest changelog versions with their dates and item counts"),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum versions to return (default %d)", DefaultLimit))),
	), s.listVersions)
	s.mcp.AddTool(mcp.NewTool("get_version",
		mcp.WithDescription("Get every categorized item of one changelog version"),
		mcp.WithString("version", mcp.Required(), mcp.Description("Version such as 1.2.3 or v1.2.3")),
	), s.getVersion)
	if s.analyzer != nil {
		s.mcp.AddTool(mcp.NewTool("analyze_changelog",
			mcp.WithDescription("Summarize the newest versions: TL;DR, breaking changes, removals and action items"),
		), s.analyzeChangelog)
	}
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP on in and out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// versionSummary is one list_versions entry.
type versionSummary struct {
	Version string           `json:"version"`
	Date    string           `json:"date,omitempty"`
	Counts  changelog.Counts `json:"counts"`
}

type versionList struct {
	Source   string           `json:"source"`
	Latest   string           `json:"latest"`
	Total    int              `json:"total"`
	Versions []versionSummary `json:"versions"`
}

func (s *Server) listVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", DefaultLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	result, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	head := changelog.Head(result.Versions, limit)
	list := versionList{
		Source:   result.SelectedSourceName,
		Latest:   result.LatestVersion,
		Total:    len(result.Versions),
		Versions: make([]versionSummary, 0, len(head)),
	}
	for _, v := range head {
		list.Versions = append(list.Versions, versionSummary{Version: v.Version, Date: v.Date, Counts: v.Counts()})
	}
	return jsonResult(list)
}

func (s *Server) getVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := req.RequireString("version")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := changelog.FindVersion(result.Versions, version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func (s *Server) analyzeChangelog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.load(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.Analysis != nil {
		return jsonResult(result.Analysis)
	}
	res, err := s.analyzer.Analyze(ctx, result.Versions)
	if err != nil {
		s.logger.Warn("analysis failed", logging.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) load(ctx context.Context) (*feed.Result, error) {
	result, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Warn("changelog load failed", logging.Error(err))
		return nil, err
	}
	return result, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

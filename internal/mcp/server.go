// Package mcp exposes the advisory operations as Model Context Protocol tools
// so assistants can query MediGuide over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/history"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Advisor answers advisory requests. *orchestrator.Orchestrator satisfies it.
type Advisor interface {
	Submit(ctx context.Context, req advisory.Request) (*advisory.Result, error)
}

// Server wraps an MCP server that exposes the advisory tools.
type Server struct {
	advisor  Advisor
	history  *history.Index
	language advisory.Language
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. lang is used when a tool call names
// no language. idx may be nil, in which case search_history is not offered.
func NewServer(advisor Advisor, idx *history.Index, lang advisory.Language) *Server {
	s := &Server{
		advisor:  advisor,
		history:  idx,
		language: lang,
	}

	s.mcp = server.NewMCPServer(
		"mediguide",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(lookupMedicineTool, s.handleLookupMedicine)
	s.mcp.AddTool(analyzeSymptomsTool, s.handleAnalyzeSymptoms)
	s.mcp.AddTool(emergencyAidTool, s.handleEmergencyAid)
	s.mcp.AddTool(checkInteractionsTool, s.handleCheckInteractions)
	s.mcp.AddTool(dosageScheduleTool, s.handleDosageSchedule)
	s.mcp.AddTool(identifyMedicineTool, s.handleIdentifyMedicine)
	s.mcp.AddTool(findPharmaciesTool, s.handleFindPharmacies)
	s.mcp.AddTool(listSituationsTool, s.handleListSituations)
	if s.history != nil {
		s.mcp.AddTool(searchHistoryTool, s.handleSearchHistory)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

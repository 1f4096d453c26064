package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/curated"
	"github.com/mediguide-lk/mediguide/internal/history"
	"github.com/mediguide-lk/mediguide/internal/report"
)

// resolveLanguage resolves the optional language argument.
func (s *Server) resolveLanguage(request mcp.CallToolRequest) (advisory.Language, error) {
	v := request.GetString("language", "")
	if v == "" {
		return s.language, nil
	}
	lang, ok := advisory.ParseLanguage(v)
	if !ok {
		return "", fmt.Errorf("unsupported language %q", v)
	}
	return lang, nil
}

// submit runs req and renders the outcome as a tool result. Advisory
// failures are tool errors carrying the user-facing message.
func (s *Server) submit(ctx context.Context, req advisory.Request) (*mcp.CallToolResult, error) {
	res, err := s.advisor.Submit(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(advisory.UserMessage(err)), nil
	}
	return mcp.NewToolResultText(report.Markdown(res)), nil
}

func (s *Server) textTool(ctx context.Context, request mcp.CallToolRequest, kind advisory.Kind, param string) (*mcp.CallToolResult, error) {
	text, err := request.RequireString(param)
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: " + param), nil
	}
	lang, err := s.resolveLanguage(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.submit(ctx, advisory.Request{Kind: kind, Language: lang, Text: text})
}

func (s *Server) listTool(ctx context.Context, request mcp.CallToolRequest, kind advisory.Kind) (*mcp.CallToolResult, error) {
	medicines, err := request.RequireStringSlice("medicines")
	if err != nil {
		return mcp.NewToolResultError("medicines must be a list of names"), nil
	}
	lang, err := s.resolveLanguage(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.submit(ctx, advisory.Request{Kind: kind, Language: lang, Medicines: medicines})
}

func (s *Server) handleLookupMedicine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.textTool(ctx, request, advisory.KindMedicineLookup, "name")
}

func (s *Server) handleAnalyzeSymptoms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.textTool(ctx, request, advisory.KindSymptomAnalysis, "symptoms")
}

func (s *Server) handleEmergencyAid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.textTool(ctx, request, advisory.KindEmergencyAid, "situation")
}

func (s *Server) handleCheckInteractions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listTool(ctx, request, advisory.KindInteractionCheck)
}

func (s *Server) handleDosageSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listTool(ctx, request, advisory.KindDosageSchedule)
}

func (s *Server) handleIdentifyMedicine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	image := request.GetString("image", "")
	if path := request.GetString("path", ""); image == "" && path != "" {
		var err error
		if image, err = advisory.LoadImage(path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if image == "" {
		return mcp.NewToolResultError("provide either image or path"), nil
	}
	return s.submit(ctx, advisory.Request{Kind: advisory.KindImageIdentify, Image: image})
}

func (s *Server) handleFindPharmacies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, err := request.RequireFloat("latitude")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: latitude"), nil
	}
	lng, err := request.RequireFloat("longitude")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: longitude"), nil
	}
	return s.submit(ctx, advisory.Request{
		Kind:     advisory.KindPharmacyLookup,
		Location: advisory.Coordinates{Lat: lat, Lng: lng},
	})
}

func (s *Server) handleListSituations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Emergency number: %s\n\n", advisory.EmergencyNumber)
	for _, sit := range curated.All() {
		fmt.Fprintf(&sb, "- %s (%s)\n", curated.Label(sit, advisory.English), curated.Label(sit, advisory.Sinhala))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	q := history.Query{Text: query, Limit: request.GetInt("limit", 5)}
	if v := request.GetString("kind", ""); v != "" {
		kind, ok := advisory.ParseKind(v)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", v)), nil
		}
		q.Kind = kind
	}

	hits, err := s.history.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No earlier answers found."), nil
	}
	return mcp.NewToolResultText(formatHits(hits)), nil
}

// formatHits renders search hits for an assistant to read.
func formatHits(hits []history.Hit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "Kind: %s\n", h.Kind)
		if h.Query != "" {
			fmt.Fprintf(&sb, "Query: %s\n", h.Query)
		}
		if !h.CompletedAt.IsZero() {
			fmt.Fprintf(&sb, "Answered: %s\n", h.CompletedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n\n", h.Similarity*100)
		sb.WriteString(h.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

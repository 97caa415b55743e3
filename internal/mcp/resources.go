package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceMIMEJSON = "application/json"
)

func (s *Server) registerAllResources() {
	if s == nil || s.mcpServer == nil {
		return
	}

	s.mcpServer.AddResource(
		mcp.NewResource(
			"spotlight://about",
			"Spotlight About",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("High-level server info and usage notes."),
		),
		s.handleAboutResource,
	)

	s.mcpServer.AddResource(
		mcp.NewResource(
			"spotlight://overlay",
			"Overlay State",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("Read-only snapshot of the search overlay (state, query, filters, results, selection)."),
		),
		s.handleOverlayResource,
	)

	s.mcpServer.AddResource(
		mcp.NewResource(
			"spotlight://session",
			"Session Context",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("The session context currently derived from the host tab."),
		),
		s.handleSessionResource,
	)
}

func (s *Server) handleAboutResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]interface{}{
		"name":    s.cfg.Server.Name,
		"version": s.cfg.Server.Version,
		"notes": []string{
			"Resources are read-only context endpoints; use tools for actions/mutations.",
			"Typical flow: launch-browser, find-host-tab, refresh-session, perform-search.",
			"Without a logged-in host tab, searches serve the offline demo dataset.",
		},
		"timestamp_ms": time.Now().UnixMilli(),
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleOverlayResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := json.Marshal(s.controller.Snapshot())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleSessionResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := json.Marshal(s.store.Current())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

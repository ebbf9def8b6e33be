// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction tool over MCP on stdio",
	Long: `Serve runs a Model Context Protocol server on stdin and stdout exposing
the pdf_extract tool. Tool arguments override the configured method and
minimum image size per call. Calls read every page unless the pages
argument is given; a configured pages setting is ignored.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, cleanup, err := newPipeline(cmd, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcp.NewServer(&mcp.Implementation{Name: "pdf-extract", Version: version}, nil)
	p.RegisterMCP(srv)

	logger.Info("serving MCP on stdio", zap.String("version", version))
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}

func init() {
	addExtractionFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}

// Package cmd implements the command-line interface for applytrack.
//
// This package provides the following commands:
//   - run: Fetch, classify and archive new emails once
//   - serve: Start the MCP server to provide tools for AI assistants
//   - sheet add|update: Edit the job application spreadsheet
//   - auth url|save: Authorize access to the Google account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The run command is the default command when no subcommand is specified.
package cmd

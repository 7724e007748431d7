// Package mcp exposes DAP memory access as Model Context Protocol tools.
//
// SDKServer keeps a registry of tools that can be invoked directly with
// CallTool or served to an MCP client over any go-sdk transport with Run.
// NewDAPServer registers the read_memory and write_memory tools against a
// connected Device.
package mcp

package uartdap

// Version is the uartdap release, reported by the CLI and the MCP server.
const Version = "0.1.0"

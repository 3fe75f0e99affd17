// Command toolsrv serves the calculator, PostgreSQL, RDS and S3 tools over MCP.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Nutrition Buddy operator CLI.
//
// Usage:
//
//	nutribuddy migrate
//	nutribuddy account create --email admin@example.com --name "Site Admin" --role sysadmin
//	nutribuddy account create --email ana@example.com --name Ana --role client --client-id 3
//	nutribuddy account list
//	nutribuddy snapshot
//
// It reads the same environment (and .env) as the server.
package main

import (
	"fmt"
	"os"

	"github.com/macromates/nutribuddy/cmd/nutribuddy/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

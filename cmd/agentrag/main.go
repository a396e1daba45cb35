package main

import "agentrag/internal/cli"

func main() {
	cli.Execute()
}

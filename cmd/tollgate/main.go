package main

import "github.com/tollgate-network/tollgate/internal/cli"

func main() {
	cli.Execute()
}

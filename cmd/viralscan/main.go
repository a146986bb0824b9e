package main

import "github.com/forPelevin/viralscan/internal/cli"

func main() {
	cli.Main()
}

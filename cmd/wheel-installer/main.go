package main

import "wheel-installer/internal/cli"

func main() {
	cli.Execute()
}

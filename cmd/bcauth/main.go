package main

import "github.com/ctiport/bcauth/internal/cli"

func main() {
	cli.Execute()
}

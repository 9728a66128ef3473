package main

import "github.com/example/contact-service/internal/cli"

func main() {
	cli.Execute()
}

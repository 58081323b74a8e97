package main

import "github.com/DevN0mad/OpenProjectBoard/internal/cli"

func main() {
	cli.Execute()
}

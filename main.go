package main

import "github.com/fakeyudi/blockrec/cmd"

func main() {
	cmd.Execute()
}

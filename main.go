package main

import "github.com/icco/mej/cmd"

func main() {
	cmd.Execute()
}

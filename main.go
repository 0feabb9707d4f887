package main

import "github.com/naka-gawa/nestbox/cmd"

func main() {
	cmd.Execute()
}

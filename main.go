package main

import "github.com/stemforge/stemscan/cmd"

func main() {
	cmd.Execute()
}

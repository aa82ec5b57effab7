package main

import "github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/cmd"

func main() {
	cmd.Execute()
}

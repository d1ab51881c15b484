package main

import "github.com/kiesman99/isotile/cmd"

func main() {
	cmd.Execute()
}

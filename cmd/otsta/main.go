package main

import "github.com/OpenTraceLab/OpenTraceSTA/cmd/otsta/cmd"

func main() {
	cmd.Execute()
}

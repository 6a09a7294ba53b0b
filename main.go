package main

import "github.com/shareporter/shareporter/cmd"

func main() {
	cmd.Execute()
}

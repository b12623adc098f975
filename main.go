package main

import "github.com/turky/sphinx/cmd"

func main() {
	cmd.Execute()
}

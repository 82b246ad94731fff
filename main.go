package main

import "github.com/aotc-build/aotc/cmd"

func main() {
	cmd.Execute()
}

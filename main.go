package main

import "github.com/theirongolddev/cinspect/cmd"

func main() {
	cmd.Execute()
}

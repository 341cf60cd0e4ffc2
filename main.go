package main

import "github.com/rskv-p/cas/cmd"

func main() {
	cmd.Execute()
}

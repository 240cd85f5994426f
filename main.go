package main

import "github.com/securenotes/apiserver/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/simulacomp/entregas/cmd"

func main() {
	cmd.Execute()
}

package main

import "cluster-merge/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ValentinKolb/dKS/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/mj1618/a11y-probe/cmd"

func main() {
	cmd.Execute()
}

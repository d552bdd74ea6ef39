package main

import (
	_ "github.com/KimMachineGun/automemlimit"
	"github.com/speakeasy-api/scaffold/cmd"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	version      = "0.0.1"
	artifactArch = "linux_x86_64"
)

func main() {
	undo, _ := maxprocs.Set()
	defer undo()

	cmd.Execute(version, artifactArch)
}

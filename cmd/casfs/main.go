// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/casfs/cmd/casfs/cmd"
)

func main() {
	cmd.Execute()
}

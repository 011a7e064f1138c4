// The main package for the kalaam-crawler executable.
package main

import (
	"github.com/JakeFAU/kalaam-crawler/cmd"
)

func main() {
	cmd.Execute()
}

// mobirplctl -- CLI client for mobirpld's status HTTP surface.
package main

import "github.com/hckim/mobirpl/cmd/mobirplctl/commands"

func main() {
	commands.Execute()
}

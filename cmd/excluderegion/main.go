// excluderegion filters a g-code stream, suppressing printing inside
// configured exclusion regions and synthesizing recovery moves on exit.
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package main

func main() {
	Execute()
}

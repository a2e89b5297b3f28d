// Command magnetar runs a headless magnetic shelf: a stack of cells that
// capture nearby objects and move together when grabbed.
package main

func main() {
	Execute()
}

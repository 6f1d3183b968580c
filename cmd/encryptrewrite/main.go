// Command encryptrewrite rewrites SQL predicates on encrypted columns.
package main

import "os"

func main() {
	os.Exit(Execute())
}

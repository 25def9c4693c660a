// oasgate CLI - OpenAPI contract-enforcing gateway
package main

import "github.com/oasgate/oasgate/pkg/cli"

func main() {
	cli.Execute()
}

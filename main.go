package main

import (
	"github.com/distributeproject/distribute-go/core/app"
)

func main() {
	app.App().Run()
}

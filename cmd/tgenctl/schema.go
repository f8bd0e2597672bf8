package main

import (
	"embed"
)

//go:embed *.schema.json
var schemas embed.FS

package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"outreach.app/courier/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}

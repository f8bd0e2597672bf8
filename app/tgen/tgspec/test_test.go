package tgspec_test

import (
	"github.com/usnistgov/tgenctl/core/testenv"
)

var (
	makeAR = testenv.MakeAR
	toJSON = testenv.ToJSON
)

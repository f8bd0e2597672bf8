package tgenmgmt_test

import (
	"github.com/usnistgov/tgenctl/core/testenv"
)

var makeAR = testenv.MakeAR

package e2e

import (
	"github.com/cucumber/godog"

	"passport/e2e/steps/common"
	"passport/e2e/steps/exchange"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	exchange.RegisterSteps(ctx, tc)
}

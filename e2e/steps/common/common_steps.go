package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"passport/pkg/domain"
)

// TestContext is the slice of the e2e context the generic assertions need.
type TestContext interface {
	Status() int
	ExpectStatus(want int) error
	ResponseField(field string) (any, error)
	Address(actor string) domain.Address
}

// RegisterSteps registers response assertions shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should be the address of "([^"]*)"$`, steps.fieldShouldBeAddress)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	return s.tc.ExpectStatus(status)
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, want string) error {
	return s.fieldShouldEqual(ctx, field, want)
}

func (s *commonSteps) fieldShouldBeAddress(ctx context.Context, field, actor string) error {
	return s.fieldShouldEqual(ctx, field, s.tc.Address(actor).String())
}

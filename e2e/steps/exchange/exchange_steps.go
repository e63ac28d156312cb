package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"

	"passport/internal/commitment"
	"passport/pkg/domain"
)

// TestContext is the slice of the e2e context the passport steps need.
type TestContext interface {
	Do(method, path, actor string, body any) error
	Credit(actor string, amount uint64) error
	ExpectStatus(want int) error
	ResponseField(field string) (any, error)
	Address(actor string) domain.Address
	PassportPath() string
	SetPassport(id string)
}

// RegisterSteps registers passport, private data and exchange steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &exchangeSteps{tc: tc, dataKeys: make(map[string]commitment.Key)}

	ctx.Step(`^"([^"]*)" holds (\d+) tokens$`, steps.holdsTokens)
	ctx.Step(`^"([^"]*)" owns a passport$`, steps.ownsPassport)
	ctx.Step(`^"([^"]*)" attested private data "([^"]*)" on the passport$`, steps.attestPrivateData)
	ctx.Step(`^"([^"]*)" proposes an exchange for "([^"]*)" from "([^"]*)" staking (\d+)$`, steps.propose)
	ctx.Step(`^"([^"]*)" accepts the exchange delivering the real data key staking (\d+)$`, steps.acceptHonestly)
	ctx.Step(`^"([^"]*)" accepts the exchange delivering a wrong data key staking (\d+)$`, steps.acceptDishonestly)
	ctx.Step(`^"([^"]*)" finishes the exchange$`, steps.finish)
	ctx.Step(`^"([^"]*)" times out the exchange$`, steps.timeout)
	ctx.Step(`^"([^"]*)" disputes the exchange revealing the exchange key$`, steps.disputeWithKey)
	ctx.Step(`^"([^"]*)" disputes the exchange revealing a random key$`, steps.disputeWithRandomKey)
	ctx.Step(`^"([^"]*)" destroys the passport$`, steps.destroy)
	ctx.Step(`^"([^"]*)" pauses the passport$`, steps.pause)
	ctx.Step(`^"([^"]*)" nominates "([^"]*)" as the new owner$`, steps.nominate)
	ctx.Step(`^"([^"]*)" claims ownership$`, steps.claim)
	ctx.Step(`^"([^"]*)" should hold (\d+) tokens$`, steps.shouldHold)
	ctx.Step(`^the exchange should be "([^"]*)"$`, steps.exchangeShouldBe)
}

type exchangeSteps struct {
	tc          TestContext
	dataKeys    map[string]commitment.Key
	exchangeKey commitment.Key
	target      string
	index       string
}

func (s *exchangeSteps) exchangePath(action string) string {
	p := s.tc.PassportPath() + "/exchanges/" + s.index
	if action != "" {
		p += "/" + action
	}
	return p
}

func (s *exchangeSteps) holdsTokens(ctx context.Context, actor string, amount uint64) error {
	return s.tc.Credit(actor, amount)
}

func (s *exchangeSteps) ownsPassport(ctx context.Context, actor string) error {
	if err := s.tc.Do(http.MethodPost, "/passports", actor, nil); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
		return err
	}
	id, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetPassport(fmt.Sprint(id))
	return nil
}

func (s *exchangeSteps) attestPrivateData(ctx context.Context, attester, label string) error {
	key, err := domain.FactKeyFromString(label)
	if err != nil {
		return err
	}
	dataKey, err := commitment.NewKey()
	if err != nil {
		return err
	}
	s.dataKeys[label] = dataKey

	body := map[string]any{
		"content_pointer": "ipfs://" + label,
		"data_key_hash":   commitment.Hash(dataKey),
	}
	if err := s.tc.Do(http.MethodPut, s.tc.PassportPath()+"/private-data/"+key.String(), attester, body); err != nil {
		return err
	}
	return s.tc.ExpectStatus(http.StatusOK)
}

func (s *exchangeSteps) propose(ctx context.Context, requester, label, attester string, stake uint64) error {
	key, err := domain.FactKeyFromString(label)
	if err != nil {
		return err
	}
	if s.exchangeKey, err = commitment.NewKey(); err != nil {
		return err
	}
	s.target = label

	body := map[string]any{
		"attester":               s.tc.Address(attester),
		"key":                    key,
		"encrypted_exchange_key": "0x01",
		"exchange_key_hash":      commitment.Hash(s.exchangeKey),
		"stake":                  stake,
	}
	if err := s.tc.Do(http.MethodPost, s.tc.PassportPath()+"/exchanges", requester, body); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
		return err
	}
	idx, err := s.tc.ResponseField("index")
	if err != nil {
		return err
	}
	s.index = strconv.FormatFloat(idx.(float64), 'f', 0, 64)
	return nil
}

func (s *exchangeSteps) accept(owner string, delivered commitment.Key, stake uint64) error {
	body := map[string]any{
		"encrypted_data_key": commitment.XOR(delivered, s.exchangeKey),
		"stake":              stake,
	}
	return s.tc.Do(http.MethodPost, s.exchangePath("accept"), owner, body)
}

func (s *exchangeSteps) acceptHonestly(ctx context.Context, owner string, stake uint64) error {
	return s.accept(owner, s.dataKeys[s.target], stake)
}

func (s *exchangeSteps) acceptDishonestly(ctx context.Context, owner string, stake uint64) error {
	wrong, err := commitment.NewKey()
	if err != nil {
		return err
	}
	return s.accept(owner, wrong, stake)
}

func (s *exchangeSteps) finish(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.exchangePath("finish"), actor, nil)
}

func (s *exchangeSteps) timeout(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.exchangePath("timeout"), actor, nil)
}

func (s *exchangeSteps) disputeWithKey(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.exchangePath("dispute"), actor, map[string]any{
		"exchange_key": s.exchangeKey,
	})
}

func (s *exchangeSteps) disputeWithRandomKey(ctx context.Context, actor string) error {
	k, err := commitment.NewKey()
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, s.exchangePath("dispute"), actor, map[string]any{
		"exchange_key": k,
	})
}

func (s *exchangeSteps) destroy(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.tc.PassportPath()+"/destroy", actor, nil)
}

func (s *exchangeSteps) pause(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.tc.PassportPath()+"/pause", actor, nil)
}

func (s *exchangeSteps) nominate(ctx context.Context, owner, nominee string) error {
	return s.tc.Do(http.MethodPost, s.tc.PassportPath()+"/ownership/transfer", owner, map[string]any{
		"new_owner": s.tc.Address(nominee),
	})
}

func (s *exchangeSteps) claim(ctx context.Context, actor string) error {
	return s.tc.Do(http.MethodPost, s.tc.PassportPath()+"/ownership/claim", actor, nil)
}

func (s *exchangeSteps) shouldHold(ctx context.Context, actor string, want uint64) error {
	if err := s.tc.Do(http.MethodGet, "/accounts/"+s.tc.Address(actor).String()+"/balance", "", nil); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	v, err := s.tc.ResponseField("balance")
	if err != nil {
		return err
	}
	if got := uint64(v.(float64)); got != want {
		return fmt.Errorf("expected %s to hold %d, got %d", actor, want, got)
	}
	return nil
}

func (s *exchangeSteps) exchangeShouldBe(ctx context.Context, state string) error {
	if err := s.tc.Do(http.MethodGet, s.exchangePath(""), "", nil); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	v, err := s.tc.ResponseField("state")
	if err != nil {
		return err
	}
	if v != state {
		return fmt.Errorf("expected exchange to be %q, got %v", state, v)
	}
	return nil
}

// Package gate checks whether a wallet holds the token.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"mnm-site/internal/domain"
	"mnm-site/internal/observability"
	"mnm-site/internal/sui"
)

// DefaultCoinType is the fully-qualified $MNM coin type.
const DefaultCoinType = "0xefde5ddb743bd93e68a75e410e985980457b5e8837c7f4afa36ecc12bb91022b::mnm::MNM"

// AdvertisedMinimum is the holding the site copy asks for. It is shown to
// users but access is decided by Policy.Threshold.
var AdvertisedMinimum = decimal.NewFromInt(10000)

// coinPageLimit is the page size requested from the node.
const coinPageLimit = 50

// maxCoinPages bounds pagination against a misbehaving node.
const maxCoinPages = 200

// ErrPaginationLimit is returned when the node keeps reporting more pages.
var ErrPaginationLimit = errors.New("coin pagination limit reached")

// Policy decides access from a normalized balance.
type Policy struct {
	// Threshold is exclusive: access requires balance > Threshold.
	Threshold decimal.Decimal
}

// DefaultPolicy grants access to any nonzero holding.
func DefaultPolicy() Policy {
	return Policy{Threshold: decimal.Zero}
}

// Grants reports whether balance passes the policy.
func (p Policy) Grants(balance decimal.Decimal) bool {
	return balance.GreaterThan(p.Threshold)
}

// Result is the outcome of one verification.
type Result struct {
	Balance   domain.WalletTokenBalance
	HasAccess bool
	// Err is set when the balance could not be read. The balance is
	// then zero and access denied; Err is for logging only.
	Err error
}

// Verifier aggregates token balances of a wallet.
type Verifier struct {
	rpc      sui.RPCClient
	coinType string
	policy   Policy
	logger   *logrus.Entry
}

// NewVerifier creates a verifier for coinType.
func NewVerifier(rpc sui.RPCClient, coinType string, policy Policy, logger *logrus.Entry) *Verifier {
	if coinType == "" {
		coinType = DefaultCoinType
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Verifier{
		rpc:      rpc,
		coinType: coinType,
		policy:   policy,
		logger:   logger,
	}
}

// CoinType returns the verified coin type.
func (v *Verifier) CoinType() string {
	return v.coinType
}

// Verify reads the wallet's holdings. It never fails: an unreadable balance
// is reported as zero with access denied.
func (v *Verifier) Verify(ctx context.Context, owner string) Result {
	raw, err := v.sumBalances(ctx, owner)
	if err != nil {
		v.logger.WithError(err).WithField("owner", owner).Warn("balance verification failed")
		observability.RecordVerification("failed")
		return Result{Balance: domain.ZeroBalance(owner), Err: err}
	}

	decimals := v.decimals(ctx)
	balance := domain.WalletTokenBalance{
		Address:           owner,
		RawBalance:        raw,
		Decimals:          decimals,
		NormalizedBalance: raw.Shift(-int32(decimals)),
	}

	hasAccess := v.policy.Grants(balance.NormalizedBalance)
	if hasAccess {
		observability.RecordVerification("granted")
	} else {
		observability.RecordVerification("denied")
	}

	return Result{Balance: balance, HasAccess: hasAccess}
}

// sumBalances adds the raw balances of all coin objects of the coin type.
func (v *Verifier) sumBalances(ctx context.Context, owner string) (decimal.Decimal, error) {
	coins, err := v.ownedCoins(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, c := range FilterCoinType(coins, v.coinType) {
		amount, err := decimal.NewFromString(c.Balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse balance of %s: %w", c.ObjectID, err)
		}
		if !amount.IsInteger() || amount.IsNegative() {
			return decimal.Zero, fmt.Errorf("invalid balance %q of %s", c.Balance, c.ObjectID)
		}
		total = total.Add(amount)
	}
	return total, nil
}

// ownedCoins lists every coin object of owner across all pages.
func (v *Verifier) ownedCoins(ctx context.Context, owner string) ([]domain.CoinObject, error) {
	var coins []domain.CoinObject
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxCoinPages {
			return nil, ErrPaginationLimit
		}

		p, err := v.rpc.GetAllCoins(ctx, owner, cursor, coinPageLimit)
		if err != nil {
			return nil, fmt.Errorf("list coins: %w", err)
		}
		for _, c := range p.Data {
			coins = append(coins, domain.CoinObject{
				CoinType: c.CoinType,
				ObjectID: c.CoinObjectID,
				Balance:  c.Balance,
				Digest:   c.Digest,
			})
		}

		if !p.HasNextPage || p.NextCursor == "" {
			return coins, nil
		}
		cursor = p.NextCursor
	}
}

// decimals returns the coin's decimal places, DefaultDecimals if unknown.
// A zero value is treated as unknown.
func (v *Verifier) decimals(ctx context.Context) int {
	meta, err := v.rpc.GetCoinMetadata(ctx, v.coinType)
	if err != nil {
		v.logger.WithError(err).Debug("coin metadata unavailable, using default decimals")
		return domain.DefaultDecimals
	}
	if meta == nil || meta.Decimals <= 0 {
		return domain.DefaultDecimals
	}
	return meta.Decimals
}

// FilterCoinType keeps coins of exactly coinType.
func FilterCoinType(coins []domain.CoinObject, coinType string) []domain.CoinObject {
	var out []domain.CoinObject
	for _, c := range coins {
		if c.CoinType == coinType {
			out = append(out, c)
		}
	}
	return out
}

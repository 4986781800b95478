package directory

import (
	"context"

	"dappdir/internal/types"
)

// SampleRecords is the development seed set.
func SampleRecords() []types.RecordInput {
	return []types.RecordInput{
		{
			Slug: "uniswap",
			Name: "Uniswap",
			Description: `# Uniswap Protocol

Uniswap is a decentralized trading protocol that enables automated trading of decentralized finance (DeFi) tokens.

## Features

- **Permissionless**: Anyone can swap, provide liquidity, or create new markets
- **Non-custodial**: You remain in control of your tokens at all times
- **Gas Efficient**: Optimized for low transaction costs`,
			Logo:       "https://cryptologos.cc/logos/uniswap-uni-logo.png",
			Tags:       []string{"DeFi", "DEX"},
			Chains:     []string{"Ethereum", "Polygon", "Arbitrum", "Optimism"},
			Website:    "https://uniswap.org",
			Twitter:    "https://twitter.com/Uniswap",
			GitHub:     "https://github.com/Uniswap",
			IsFeatured: true,
		},
		{
			Slug: "aave",
			Name: "Aave",
			Description: `# Aave Protocol

Aave is a decentralized non-custodial liquidity protocol where users can participate as suppliers or borrowers.

## Key Features

- **Supply & Earn**: Deposit crypto and earn interest
- **Borrow**: Access instant loans backed by your collateral
- **Flash Loans**: Uncollateralized loans for developers`,
			Logo:       "https://cryptologos.cc/logos/aave-aave-logo.png",
			Tags:       []string{"DeFi", "Lending"},
			Chains:     []string{"Ethereum", "Polygon", "Avalanche", "Arbitrum"},
			Website:    "https://aave.com",
			Twitter:    "https://twitter.com/AaveAave",
			GitHub:     "https://github.com/aave",
			IsFeatured: true,
		},
		{
			Slug: "opensea",
			Name: "OpenSea",
			Description: `# OpenSea

The world's first and largest NFT marketplace.

## Supported Standards

- ERC-721
- ERC-1155`,
			Logo:       "https://opensea.io/static/images/logos/opensea-logo.svg",
			Tags:       []string{"NFT", "Marketplace"},
			Chains:     []string{"Ethereum", "Polygon", "Arbitrum"},
			Website:    "https://opensea.io",
			Twitter:    "https://twitter.com/opensea",
			IsFeatured: true,
		},
	}
}

// Seed saves every sample record, stopping at the first failure.
func (s *Service) Seed(ctx context.Context) error {
	for _, in := range SampleRecords() {
		_, errs, err := s.Save(ctx, in)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return types.Err(types.ErrInvalidRequest, nil, "seed record %s: %v", in.Slug, errs)
		}
	}
	s.log.Info("Database seeded successfully")
	return nil
}

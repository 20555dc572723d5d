package entity

import "math/big"

// SwapPrecheck bundles the batched reads the executor needs before
// submitting: the input-token allowance granted to the router and the
// wallet's balances. For a native input leg the token balance mirrors the
// native balance and the allowance is zero.
type SwapPrecheck struct {
	Allowance     *big.Int
	TokenBalance  *big.Int
	NativeBalance *big.Int
}

// Package codec packs and unpacks the contract calls the service issues:
// the minimal ERC-20 surface (balanceOf, allowance, approve) and the
// Uniswap V2 router entry points.
package codec

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"success","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

const routerABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":true,"stateMutability":"payable","type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":false,"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedERC20  abi.ABI
	parsedRouter abi.ABI
	parseOnce    sync.Once
)

func ensureParsed() {
	parseOnce.Do(func() {
		var err error
		parsedERC20, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		parsedRouter, err = abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse router ABI: %v", err))
		}
	})
}

func toAddresses(path []string) []common.Address {
	out := make([]common.Address, len(path))
	for i, p := range path {
		out[i] = common.HexToAddress(p)
	}
	return out
}

// PackBalanceOf encodes balanceOf(owner).
func PackBalanceOf(owner string) ([]byte, error) {
	ensureParsed()
	return parsedERC20.Pack("balanceOf", common.HexToAddress(owner))
}

// PackAllowance encodes allowance(owner, spender).
func PackAllowance(owner, spender string) ([]byte, error) {
	ensureParsed()
	return parsedERC20.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

// PackApprove encodes approve(spender, amount).
func PackApprove(spender string, amount *big.Int) ([]byte, error) {
	ensureParsed()
	return parsedERC20.Pack("approve", common.HexToAddress(spender), amount)
}

// UnpackUint256 decodes a single uint256 return value, as produced by
// balanceOf and allowance. Empty data decodes to zero.
func UnpackUint256(method string, data []byte) (*big.Int, error) {
	ensureParsed()
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	unpacked, err := parsedERC20.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("%s unpack returned no data", method)
	}
	value, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert unpacked %s result to *big.Int, got %T", method, unpacked[0])
	}
	return value, nil
}

// PackGetAmountsOut encodes getAmountsOut(amountIn, path).
func PackGetAmountsOut(amountIn *big.Int, path []string) ([]byte, error) {
	ensureParsed()
	return parsedRouter.Pack("getAmountsOut", amountIn, toAddresses(path))
}

// UnpackGetAmountsOut decodes the uint256[] returned by getAmountsOut.
func UnpackGetAmountsOut(data []byte) ([]*big.Int, error) {
	ensureParsed()
	unpacked, err := parsedRouter.Unpack("getAmountsOut", data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut result: %w", err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("getAmountsOut unpack returned no data")
	}
	amounts, ok := unpacked[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert unpacked getAmountsOut result to []*big.Int, got %T", unpacked[0])
	}
	return amounts, nil
}

// PackSwapExactETHForTokens encodes the native-to-token entry point. The
// input amount rides on the transaction value, not in the calldata.
func PackSwapExactETHForTokens(amountOutMin *big.Int, path []string, to string, deadline *big.Int) ([]byte, error) {
	ensureParsed()
	return parsedRouter.Pack("swapExactETHForTokens", amountOutMin, toAddresses(path), common.HexToAddress(to), deadline)
}

// PackSwapExactTokensForETH encodes the token-to-native entry point.
func PackSwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []string, to string, deadline *big.Int) ([]byte, error) {
	ensureParsed()
	return parsedRouter.Pack("swapExactTokensForETH", amountIn, amountOutMin, toAddresses(path), common.HexToAddress(to), deadline)
}

// PackSwapExactTokensForTokens encodes the token-to-token entry point.
func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []string, to string, deadline *big.Int) ([]byte, error) {
	ensureParsed()
	return parsedRouter.Pack("swapExactTokensForTokens", amountIn, amountOutMin, toAddresses(path), common.HexToAddress(to), deadline)
}

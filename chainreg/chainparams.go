package chainreg

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-elements/network"
)

const (
	// CoinTypeBitcoin is the BIP44 coin type for Bitcoin mainnet.
	CoinTypeBitcoin uint32 = 0

	// CoinTypeTestnet is the BIP44 coin type for every test network.
	CoinTypeTestnet uint32 = 1

	// CoinTypeLiquid is the SLIP-44 coin type for Liquid.
	CoinTypeLiquid uint32 = 1776
)

// NetParams couples the chaincfg parameters of a network with the Elements
// specific prefixes used by confidential addresses. For Bitcoin networks the
// Elements fields are left zero.
type NetParams struct {
	*chaincfg.Params

	// CoinType is the BIP44 coin type used for key derivation.
	CoinType uint32

	// Mainnet is true for networks whose keys and addresses use the
	// mainnet versions.
	Mainnet bool

	// Elements is true for Elements based networks that support
	// confidential transactions.
	Elements bool

	// ConfidentialPrefix is the leading byte of base58 confidential
	// addresses.
	ConfidentialPrefix byte

	// Blech32HRP is the human readable part of confidential segwit
	// addresses.
	Blech32HRP string

	// PolicyAsset is the hex asset id of the network's fee asset.
	PolicyAsset string

	// GenesisHash is the hex genesis block hash of an Elements network.
	GenesisHash string
}

// BitcoinMainNetParams contains parameters specific to Bitcoin mainnet.
var BitcoinMainNetParams = NetParams{
	Params:   &chaincfg.MainNetParams,
	CoinType: CoinTypeBitcoin,
	Mainnet:  true,
}

// BitcoinTestNetParams contains parameters specific to the 3rd version of the
// Bitcoin test network.
var BitcoinTestNetParams = NetParams{
	Params:   &chaincfg.TestNet3Params,
	CoinType: CoinTypeTestnet,
}

// BitcoinRegTestNetParams contains parameters specific to a local Bitcoin
// regtest network.
var BitcoinRegTestNetParams = NetParams{
	Params:   &chaincfg.RegressionNetParams,
	CoinType: CoinTypeTestnet,
}

// elementsParams builds the parameters of an Elements network from its
// go-elements description. name is the user facing network name.
func elementsParams(name string, n *network.Network, coinType uint32,
	mainnet bool) NetParams {

	return NetParams{
		Params: &chaincfg.Params{
			Name:             name,
			PubKeyHashAddrID: n.PubKeyHash,
			ScriptHashAddrID: n.ScriptHash,
			PrivateKeyID:     n.Wif,
			Bech32HRPSegwit:  n.Bech32,
			HDPrivateKeyID:   n.HDPrivateKey,
			HDPublicKeyID:    n.HDPublicKey,
			HDCoinType:       coinType,
		},
		CoinType:           coinType,
		Mainnet:            mainnet,
		Elements:           true,
		ConfidentialPrefix: n.Confidential,
		Blech32HRP:         n.Blech32,
		PolicyAsset:        n.AssetID,
		GenesisHash:        n.GenesisBlockHash,
	}
}

// LiquidParams contains parameters specific to the Liquid network.
var LiquidParams = elementsParams(
	"liquid", &network.Liquid, CoinTypeLiquid, true,
)

// LiquidTestNetParams contains parameters specific to the Liquid test
// network.
var LiquidTestNetParams = elementsParams(
	"liquidtestnet", &network.Testnet, CoinTypeTestnet, false,
)

// ElementsRegTestParams contains parameters specific to a local Elements
// regtest network.
var ElementsRegTestParams = elementsParams(
	"elementsregtest", &network.Regtest, CoinTypeTestnet, false,
)

// networks maps the user facing network names to their parameters.
var networks = map[string]*NetParams{
	"mainnet":         &BitcoinMainNetParams,
	"testnet":         &BitcoinTestNetParams,
	"regtest":         &BitcoinRegTestNetParams,
	"liquid":          &LiquidParams,
	"liquidtestnet":   &LiquidTestNetParams,
	"elementsregtest": &ElementsRegTestParams,
}

// Lookup returns the parameters of the named network.
func Lookup(name string) (*NetParams, error) {
	params, ok := networks[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q, expected one of %v",
			name, Networks())
	}

	return params, nil
}

// Networks returns the sorted names of all known networks.
func Networks() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// HDPrivateVersion returns the BIP32 private key version as an integer.
func (p *NetParams) HDPrivateVersion() uint32 {
	v := p.HDPrivateKeyID

	return uint32(v[0])<<24 | uint32(v[1])<<16 | uint32(v[2])<<8 |
		uint32(v[3])
}

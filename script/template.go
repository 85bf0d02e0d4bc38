package script

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

// ScriptKind identifies the layout of a parsed script.
type ScriptKind uint8

const (
	// KindUnknown is never returned by a successful Parse.
	KindUnknown ScriptKind = iota

	// KindP2PKH is OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
	KindP2PKH

	// KindP2SH is OP_HASH160 <20> OP_EQUAL.
	KindP2SH

	// KindP2WPKH is OP_0 <20>.
	KindP2WPKH

	// KindP2WSH is OP_0 <32>.
	KindP2WSH

	// KindMultisig is a bare CHECKMULTISIG script.
	KindMultisig

	// KindCSV2of2 is the plain CSV 2-of-2 then 1 layout.
	KindCSV2of2

	// KindCSV2of2Optimized is the optimized CSV 2-of-2 then 1 layout.
	KindCSV2of2Optimized
)

// String returns a human readable name for the kind.
func (k ScriptKind) String() string {
	switch k {
	case KindP2PKH:
		return "p2pkh"
	case KindP2SH:
		return "p2sh"
	case KindP2WPKH:
		return "p2wpkh"
	case KindP2WSH:
		return "p2wsh"
	case KindMultisig:
		return "multisig"
	case KindCSV2of2:
		return "csv-2of2"
	case KindCSV2of2Optimized:
		return "csv-2of2-optimized"
	default:
		return "unknown"
	}
}

// Template is a script matched against one of the known layouts, together
// with the parameters extracted from it.
type Template struct {
	Kind ScriptKind

	// Hash is the pubkey or script hash of the hash based kinds.
	Hash []byte

	// PubKeys are the keys of multisig and CSV scripts. For CSV scripts
	// PubKeys[0] is the cosigner key and PubKeys[1] the user key.
	PubKeys [][]byte

	// Threshold is the number of required signatures of a multisig
	// script.
	Threshold int

	// CSVBlocks is the relative delay of a CSV script.
	CSVBlocks uint32
}

// token is a single parsed opcode with its push data.
type token struct {
	op   byte
	data []byte
}

func tokenize(script []byte) ([]token, error) {
	var tokens []token

	const scriptVersion = 0
	tok := txscript.MakeScriptTokenizer(scriptVersion, script)
	for tok.Next() {
		tokens = append(tokens, token{op: tok.Opcode(), data: tok.Data()})
	}
	if err := tok.Err(); err != nil {
		return nil, walleterr.NewScriptError(script, "tokenize: %v", err)
	}

	return tokens, nil
}

// matcher returns the template of a script whose tokens it accepts, or false.
type matcher func(tokens []token) (*Template, bool)

// matchers are tried in order by Parse.
var matchers = []matcher{
	matchP2PKH,
	matchP2SH,
	matchWitnessV0,
	matchMultisig,
	matchCSV,
	matchCSVOptimized,
}

// Parse matches script against the known layouts.
func Parse(script []byte) (*Template, error) {
	tokens, err := tokenize(script)
	if err != nil {
		return nil, err
	}

	for _, match := range matchers {
		if tmpl, ok := match(tokens); ok {
			return tmpl, nil
		}
	}

	return nil, walleterr.NewScriptError(script, "unrecognised layout")
}

// opsEqual reports whether the opcodes of tokens are exactly ops.
func opsEqual(tokens []token, ops ...byte) bool {
	if len(tokens) != len(ops) {
		return false
	}
	for i, op := range ops {
		if tokens[i].op != op {
			return false
		}
	}

	return true
}

func matchP2PKH(tokens []token) (*Template, bool) {
	if !opsEqual(tokens, txscript.OP_DUP, txscript.OP_HASH160,
		txscript.OP_DATA_20, txscript.OP_EQUALVERIFY,
		txscript.OP_CHECKSIG) {

		return nil, false
	}

	return &Template{Kind: KindP2PKH, Hash: tokens[2].data}, true
}

func matchP2SH(tokens []token) (*Template, bool) {
	if !opsEqual(tokens, txscript.OP_HASH160, txscript.OP_DATA_20,
		txscript.OP_EQUAL) {

		return nil, false
	}

	return &Template{Kind: KindP2SH, Hash: tokens[1].data}, true
}

func matchWitnessV0(tokens []token) (*Template, bool) {
	switch {
	case opsEqual(tokens, txscript.OP_0, txscript.OP_DATA_20):
		return &Template{Kind: KindP2WPKH, Hash: tokens[1].data}, true

	case opsEqual(tokens, txscript.OP_0, txscript.OP_DATA_32):
		return &Template{Kind: KindP2WSH, Hash: tokens[1].data}, true

	default:
		return nil, false
	}
}

// smallInt returns the value of an OP_1 to OP_16 opcode.
func smallInt(op byte) (int, bool) {
	if op < txscript.OP_1 || op > txscript.OP_16 {
		return 0, false
	}

	return int(op-txscript.OP_1) + 1, true
}

// isPubKey reports whether t pushes a parseable public key.
func isPubKey(t token) bool {
	if t.op != txscript.OP_DATA_33 && t.op != txscript.OP_DATA_65 {
		return false
	}
	_, err := btcec.ParsePubKey(t.data)

	return err == nil
}

func matchMultisig(tokens []token) (*Template, bool) {
	n := len(tokens)
	if n < 4 || tokens[n-1].op != txscript.OP_CHECKMULTISIG {
		return nil, false
	}

	threshold, ok := smallInt(tokens[0].op)
	if !ok {
		return nil, false
	}
	numKeys, ok := smallInt(tokens[n-2].op)
	if !ok || numKeys != n-3 || threshold > numKeys {
		return nil, false
	}

	keys := make([][]byte, 0, numKeys)
	for _, t := range tokens[1 : n-2] {
		if !isPubKey(t) {
			return nil, false
		}
		keys = append(keys, t.data)
	}

	return &Template{
		Kind:      KindMultisig,
		PubKeys:   keys,
		Threshold: threshold,
	}, true
}

// csvBlocks decodes the delay push of a CSV script. The push must be a raw
// one to four byte push of a minimal non-negative number.
func csvBlocks(t token) (uint32, bool) {
	if t.op < txscript.OP_DATA_1 || t.op > txscript.OP_DATA_4 {
		return 0, false
	}

	return decodeCSVNum(t.data)
}

func matchCSV(tokens []token) (*Template, bool) {
	// The delay push is matched by position, so any raw push opcode is
	// allowed there.
	if len(tokens) != 12 {
		return nil, false
	}

	ops := []byte{
		txscript.OP_DEPTH, txscript.OP_1SUB, txscript.OP_IF,
		txscript.OP_DATA_33, txscript.OP_CHECKSIGVERIFY,
		txscript.OP_ELSE, tokens[6].op,
		txscript.OP_CHECKSEQUENCEVERIFY, txscript.OP_DROP,
		txscript.OP_ENDIF, txscript.OP_DATA_33, txscript.OP_CHECKSIG,
	}
	if !opsEqual(tokens, ops...) ||
		!isPubKey(tokens[3]) || !isPubKey(tokens[10]) {

		return nil, false
	}

	blocks, ok := csvBlocks(tokens[6])
	if !ok {
		return nil, false
	}

	return &Template{
		Kind:      KindCSV2of2,
		PubKeys:   [][]byte{tokens[3].data, tokens[10].data},
		CSVBlocks: blocks,
	}, true
}

func matchCSVOptimized(tokens []token) (*Template, bool) {
	if len(tokens) != 9 {
		return nil, false
	}

	ops := []byte{
		txscript.OP_DATA_33, txscript.OP_CHECKSIGVERIFY,
		txscript.OP_DATA_33, txscript.OP_CHECKSIG,
		txscript.OP_IFDUP, txscript.OP_NOTIF, tokens[6].op,
		txscript.OP_CHECKSEQUENCEVERIFY, txscript.OP_ENDIF,
	}
	if !opsEqual(tokens, ops...) ||
		!isPubKey(tokens[0]) || !isPubKey(tokens[2]) {

		return nil, false
	}

	blocks, ok := csvBlocks(tokens[6])
	if !ok {
		return nil, false
	}

	return &Template{
		Kind:      KindCSV2of2Optimized,
		PubKeys:   [][]byte{tokens[2].data, tokens[0].data},
		CSVBlocks: blocks,
	}, true
}

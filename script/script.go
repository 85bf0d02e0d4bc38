package script

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// P2PKHLen is the length of a pay-to-pubkey-hash output script.
	P2PKHLen = 25

	// P2SHLen is the length of a pay-to-script-hash output script.
	P2SHLen = 23

	// P2WPKHLen is the length of a v0 pay-to-witness-pubkey-hash output
	// script.
	P2WPKHLen = 22

	// P2WSHLen is the length of a v0 pay-to-witness-script-hash output
	// script.
	P2WSHLen = 34

	// MaxMultisigKeys is the largest number of keys in a bare multisig
	// script.
	MaxMultisigKeys = 16
)

// mustScript finalizes a builder whose pushes are known to be in bounds.
func mustScript(b *txscript.ScriptBuilder) []byte {
	s, err := b.Script()
	walleterr.Assert(err == nil, "script builder: %v", err)

	return s
}

// P2PKH returns OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func P2PKH(hash []byte) []byte {
	walleterr.Assert(len(hash) == 20, "p2pkh hash of %d bytes", len(hash))

	return mustScript(txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG))
}

// P2SH returns OP_HASH160 <hash> OP_EQUAL.
func P2SH(hash []byte) []byte {
	walleterr.Assert(len(hash) == 20, "p2sh hash of %d bytes", len(hash))

	return mustScript(txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUAL))
}

// P2WPKH returns OP_0 <hash>.
func P2WPKH(hash []byte) []byte {
	walleterr.Assert(len(hash) == 20, "p2wpkh hash of %d bytes", len(hash))

	return mustScript(txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(hash))
}

// P2WSH returns OP_0 <hash>.
func P2WSH(hash []byte) []byte {
	walleterr.Assert(len(hash) == 32, "p2wsh hash of %d bytes", len(hash))

	return mustScript(txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(hash))
}

// P2SHForScript returns the P2SH output paying to redeemScript.
func P2SHForScript(redeemScript []byte) []byte {
	return P2SH(btcutil.Hash160(redeemScript))
}

// P2WSHForScript returns the v0 P2WSH output paying to witnessScript.
func P2WSHForScript(witnessScript []byte) []byte {
	h := sha256.Sum256(witnessScript)
	return P2WSH(h[:])
}

// P2SHP2WSHForScript returns the P2SH output that wraps a v0 P2WSH program
// for witnessScript.
func P2SHP2WSHForScript(witnessScript []byte) []byte {
	return P2SHForScript(P2WSHForScript(witnessScript))
}

// P2SHP2WPKHScriptSig returns the scriptSig spending a P2SH wrapped P2WPKH
// output of pubKey: a single push of the witness program.
func P2SHP2WPKHScriptSig(pubKey []byte) []byte {
	return PushData(P2WPKH(btcutil.Hash160(pubKey)))
}

// P2PKHScriptSig returns <sig> <pubkey>, where sig is a DER signature with
// its sighash byte.
func P2PKHScriptSig(sig, pubKey []byte) []byte {
	out := PushData(sig)
	return append(out, PushData(pubKey)...)
}

// PushData returns the canonical push of data. Unlike the script builder it
// never turns short pushes into small integer opcodes, so the layout of a
// push depends only on its length.
func PushData(data []byte) []byte {
	n := len(data)

	var out []byte
	switch {
	case n < txscript.OP_PUSHDATA1:
		out = make([]byte, 0, 1+n)
		out = append(out, byte(n))

	case n <= 0xff:
		out = make([]byte, 0, 2+n)
		out = append(out, txscript.OP_PUSHDATA1, byte(n))

	case n <= 0xffff:
		out = make([]byte, 3, 3+n)
		out[0] = txscript.OP_PUSHDATA2
		binary.LittleEndian.PutUint16(out[1:], uint16(n))

	default:
		out = make([]byte, 5, 5+n)
		out[0] = txscript.OP_PUSHDATA4
		binary.LittleEndian.PutUint32(out[1:], uint32(n))
	}

	return append(out, data...)
}

// VarBuffLength returns the serialized size of a script of scriptLen bytes
// including its var-int length prefix.
func VarBuffLength(scriptLen int) int {
	return wire.VarIntSerializeSize(uint64(scriptLen)) + scriptLen
}

// ElectrumScriptHash returns the hex of the byte-reversed sha256 of script,
// as used to subscribe to script histories on Electrum servers.
func ElectrumScriptHash(script []byte) string {
	h := sha256.Sum256(script)
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}

	return hex.EncodeToString(h[:])
}

// MultisigScript returns a bare threshold-of-len(pubKeys) CHECKMULTISIG
// script. Keys are used in the order given.
func MultisigScript(pubKeys [][]byte, threshold int) ([]byte, error) {
	if len(pubKeys) == 0 || len(pubKeys) > MaxMultisigKeys ||
		threshold < 1 || threshold > len(pubKeys) {

		return nil, walleterr.NewScriptError(nil,
			"%d-of-%d multisig", threshold, len(pubKeys))
	}

	keys := make([]*btcutil.AddressPubKey, 0, len(pubKeys))
	for i, raw := range pubKeys {
		if _, err := btcec.ParsePubKey(raw); err != nil {
			return nil, walleterr.NewScriptError(nil,
				"multisig key %d: %v", i, err)
		}

		// The network only matters for address encoding, which we
		// never do here.
		key, err := btcutil.NewAddressPubKey(
			raw, &chaincfg.MainNetParams,
		)
		if err != nil {
			return nil, walleterr.NewScriptError(nil,
				"multisig key %d: %v", i, err)
		}
		keys = append(keys, key)
	}

	s, err := txscript.MultiSigScript(keys, threshold)
	if err != nil {
		return nil, walleterr.NewScriptError(nil, "multisig: %v", err)
	}

	log.Tracef("Built %d-of-%d multisig script", threshold, len(keys))

	return s, nil
}

// Class returns the standard script class of script.
func Class(script []byte) txscript.ScriptClass {
	return txscript.GetScriptClass(script)
}

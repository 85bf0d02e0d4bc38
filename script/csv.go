package script

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// maxCSVNumLen is the largest script number length accepted for the
	// CSV delay.
	maxCSVNumLen = 4

	compressedPubKeyLen = 33
)

// encodeCSVNum returns the minimal little-endian script number encoding of
// blocks. Zero is encoded as a single 0x00 byte so that every delay is a one
// to four byte raw push.
//
// Delays of 0 through 16 are therefore not minimal pushes: a minimal script
// would use OP_0 or OP_1 to OP_16. The scripts stay valid under consensus,
// but spends of them fail the MINIMALDATA standardness check and will not
// relay on nodes that enforce it.
func encodeCSVNum(blocks uint32) ([]byte, error) {
	if blocks == 0 {
		return []byte{0x00}, nil
	}

	var num []byte
	for v := blocks; v > 0; v >>= 8 {
		num = append(num, byte(v))
	}

	// A set top bit would make the number negative, so it needs a
	// padding byte.
	if num[len(num)-1]&0x80 != 0 {
		num = append(num, 0x00)
	}

	if len(num) > maxCSVNumLen {
		return nil, walleterr.NewScriptError(nil,
			"csv delay %d does not fit in %d bytes", blocks,
			maxCSVNumLen)
	}

	return num, nil
}

// decodeCSVNum is the inverse of encodeCSVNum. It rejects negative and
// non-minimal encodings.
func decodeCSVNum(num []byte) (uint32, bool) {
	n := len(num)
	if n == 0 || n > maxCSVNumLen {
		return 0, false
	}

	last := num[n-1]
	if last&0x80 != 0 {
		return 0, false
	}
	if n > 1 && last == 0 && num[n-2]&0x80 == 0 {
		return 0, false
	}

	var v uint32
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint32(num[i])
	}

	return v, true
}

// checkCSVKeys requires both keys to be parseable compressed keys.
func checkCSVKeys(keys [2][]byte) error {
	for i, key := range keys {
		if len(key) != compressedPubKeyLen {
			return walleterr.NewScriptError(nil,
				"csv key %d is %d bytes", i, len(key))
		}
		if _, err := btcec.ParsePubKey(key); err != nil {
			return walleterr.NewScriptError(nil, "csv key %d: %v",
				i, err)
		}
	}

	return nil
}

// CSV2of2Then1Script returns a script that needs both keys until the output
// is blocks deep, and only keys[1] afterwards. keys[0] is the cosigner key
// and keys[1] the user key.
//
// The delay is always a raw data push (see encodeCSVNum), so for blocks in
// 0..16 the script is non-standard to spend under MINIMALDATA relay policy.
// Callers wanting relayable spends should use a delay of at least 17.
//
// The plain layout is:
//
//	OP_DEPTH OP_1SUB
//	OP_IF
//	    <keys[0]> OP_CHECKSIGVERIFY
//	OP_ELSE
//	    <blocks> OP_CHECKSEQUENCEVERIFY OP_DROP
//	OP_ENDIF
//	<keys[1]> OP_CHECKSIG
//
// The optimized layout is:
//
//	<keys[1]> OP_CHECKSIGVERIFY <keys[0]> OP_CHECKSIG
//	OP_IFDUP OP_NOTIF
//	    <blocks> OP_CHECKSEQUENCEVERIFY
//	OP_ENDIF
func CSV2of2Then1Script(keys [2][]byte, blocks uint32,
	optimize bool) ([]byte, error) {

	if err := checkCSVKeys(keys); err != nil {
		return nil, err
	}

	num, err := encodeCSVNum(blocks)
	if err != nil {
		return nil, err
	}

	// The delay is added as a raw push so that it always sits behind a
	// length byte, including for values the builder would turn into
	// small integer opcodes.
	b := txscript.NewScriptBuilder()
	if optimize {
		b.AddData(keys[1]).
			AddOp(txscript.OP_CHECKSIGVERIFY).
			AddData(keys[0]).
			AddOp(txscript.OP_CHECKSIG).
			AddOp(txscript.OP_IFDUP).
			AddOp(txscript.OP_NOTIF).
			AddOps(PushData(num)).
			AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
			AddOp(txscript.OP_ENDIF)
	} else {
		b.AddOp(txscript.OP_DEPTH).
			AddOp(txscript.OP_1SUB).
			AddOp(txscript.OP_IF).
			AddData(keys[0]).
			AddOp(txscript.OP_CHECKSIGVERIFY).
			AddOp(txscript.OP_ELSE).
			AddOps(PushData(num)).
			AddOp(txscript.OP_CHECKSEQUENCEVERIFY).
			AddOp(txscript.OP_DROP).
			AddOp(txscript.OP_ENDIF).
			AddData(keys[1]).
			AddOp(txscript.OP_CHECKSIG)
	}

	s, err := b.Script()
	if err != nil {
		return nil, walleterr.NewScriptError(nil, "csv script: %v", err)
	}

	log.Tracef("Built csv script: blocks=%d optimized=%v len=%d", blocks,
		optimize, len(s))

	return s, nil
}

// ExtractCSVBlocks returns the delay of a script built by
// CSV2of2Then1Script, in either layout.
func ExtractCSVBlocks(redeemScript []byte) (uint32, error) {
	tmpl, err := Parse(redeemScript)
	if err != nil {
		return 0, err
	}

	switch tmpl.Kind {
	case KindCSV2of2, KindCSV2of2Optimized:
		return tmpl.CSVBlocks, nil

	default:
		return 0, walleterr.NewScriptError(redeemScript,
			"%v is not a csv script", tmpl.Kind)
	}
}

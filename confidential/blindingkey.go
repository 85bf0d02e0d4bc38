package confidential

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	slip21Seed  = "Symmetric key seed"
	slip77Label = "SLIP-0077"
)

// MasterBlindingKeyFromSeed derives the SLIP-77 master blinding key from a
// BIP39 seed.
func MasterBlindingKeyFromSeed(seed []byte) [32]byte {
	root := primitives.HMACSHA512([]byte(slip21Seed), seed)
	defer primitives.ZeroBytes(root[:])

	label := append([]byte{0x00}, slip77Label...)
	node := primitives.HMACSHA512(root[:32], label)
	defer primitives.ZeroBytes(node[:])

	var master [32]byte
	copy(master[:], node[32:])

	return master
}

// BlindingPrivateKey returns the blinding private key of script.
func BlindingPrivateKey(master [32]byte, script []byte) ([32]byte, error) {
	priv := primitives.HMACSHA256(master[:], script)
	if err := primitives.PrivateKeyVerify(priv[:]); err != nil {
		primitives.ZeroBytes(priv[:])
		return priv, fmt.Errorf("%w: blinding key", walleterr.ErrInvalidKey)
	}

	return priv, nil
}

// BlindingPublicKey returns the compressed blinding public key of script.
func BlindingPublicKey(master [32]byte, script []byte) ([PointLen]byte,
	error) {

	var out [PointLen]byte

	priv, err := BlindingPrivateKey(master, script)
	if err != nil {
		return out, err
	}
	defer primitives.ZeroBytes(priv[:])

	err = primitives.WithPrivateKey(priv, func(key *btcec.PrivateKey) error {
		copy(out[:], key.PubKey().SerializeCompressed())
		return nil
	})

	return out, err
}

// BindersFromBlindingKey derives the blinding factors of an output from the
// master blinding key, so that a transaction can be blinded again with the
// same factors.
func BindersFromBlindingKey(master [32]byte, hashPrevouts [32]byte,
	outputIndex uint32) ([ScalarLen]byte, [ScalarLen]byte, error) {

	var abf, vbf [ScalarLen]byte

	msg := make([]byte, 0, len(hashPrevouts)+4)
	msg = append(msg, hashPrevouts[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, outputIndex)

	out := primitives.HMACSHA512(master[:], msg)
	defer primitives.ZeroBytes(out[:])

	copy(abf[:], out[:32])
	copy(vbf[:], out[32:])

	if primitives.ScalarVerify(abf[:]) != nil ||
		primitives.ScalarVerify(vbf[:]) != nil {

		primitives.ZeroBytes(abf[:])
		primitives.ZeroBytes(vbf[:])

		return abf, vbf, fmt.Errorf("%w: derived blinder out of range",
			walleterr.ErrInvalidKey)
	}

	return abf, vbf, nil
}

// HashPrevouts returns the double sha256 of the serialized outpoints.
func HashPrevouts(txids []chainhash.Hash, vouts []uint32) [32]byte {
	walleterr.Assert(len(txids) == len(vouts),
		"%d txids for %d vouts", len(txids), len(vouts))

	buf := make([]byte, 0, len(txids)*(chainhash.HashSize+4))
	for i := range txids {
		buf = append(buf, txids[i][:]...)
		buf = binary.LittleEndian.AppendUint32(buf, vouts[i])
	}

	return primitives.SHA256d(buf)
}

package header

import (
	"fmt"
	"math/big"

	"github.com/beancore/beanminer/internal/hash256"
)

// MaxTarget is the highest (easiest) target the compact encoding of
// difficulty 1 expands to: 0xffff * 256^26.
var MaxTarget = CompactToTarget(0x1d00ffff)

// CompactToTarget expands the 4-byte compact difficulty encoding to the full
// 256-bit target: a 1-byte exponent and 3-byte mantissa interpreted as
// mantissa * 256^(exponent-3). Bit 24 of the mantissa is a sign flag, kept
// for wire compatibility even though no valid target is negative.
func CompactToTarget(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	negative := bits&0x00800000 != 0
	exponent := uint(bits >> 24)

	var target *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target = big.NewInt(int64(mantissa))
	} else {
		target = big.NewInt(int64(mantissa))
		target.Lsh(target, 8*(exponent-3))
	}

	if negative {
		target.Neg(target)
	}
	return target
}

// TargetToCompact packs a target back into compact form, losing precision
// beyond the 3 mantissa bytes.
func TargetToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(target.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(target.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(target)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// A mantissa with the sign bit set needs one more exponent byte.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent)<<24 | mantissa
	if target.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// BitsToDifficulty converts a compact target to the conventional difficulty
// ratio MaxTarget / target.
func BitsToDifficulty(bits uint32) float64 {
	target := CompactToTarget(bits)
	if target.Sign() <= 0 {
		return 0
	}
	diff, _ := new(big.Rat).SetFrac(MaxTarget, target).Float64()
	return diff
}

// DifficultyToTarget converts a difficulty ratio to the target it implies.
// Pool share difficulties below the header's own are the usual callers.
func DifficultyToTarget(difficulty float64) (*big.Int, error) {
	if difficulty <= 0 {
		return nil, fmt.Errorf("header: difficulty must be positive, got %v", difficulty)
	}
	t := new(big.Float).SetInt(MaxTarget)
	t.Quo(t, big.NewFloat(difficulty))
	target, _ := t.Int(nil)
	return target, nil
}

// DifficultyToBits converts a difficulty ratio to compact form.
func DifficultyToBits(difficulty float64) (uint32, error) {
	target, err := DifficultyToTarget(difficulty)
	if err != nil {
		return 0, err
	}
	return TargetToCompact(target), nil
}

// HashToBig interprets a digest as the big-endian integer used in target
// comparisons. The digest arrives in engine byte order, so it is reversed
// into display order first.
func HashToBig(digest [hash256.Size]byte) *big.Int {
	for i := 0; i < hash256.Size/2; i++ {
		digest[i], digest[hash256.Size-1-i] = digest[hash256.Size-1-i], digest[i]
	}
	return new(big.Int).SetBytes(digest[:])
}

// CheckProofOfWork reports whether a digest qualifies against the target.
func CheckProofOfWork(digest [hash256.Size]byte, target *big.Int) bool {
	return HashToBig(digest).Cmp(target) <= 0
}

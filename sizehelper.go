package gochan

import "github.com/EklabDev/gochan/internal/constants"

// SizeFor returns the slot_size a Channel should be created with to hold
// sample once encoded by codec, plus the length-prefix overhead. It rounds
// up to the next DefaultSlotSize multiple so a caller sizing against a
// representative sample has headroom for minor variation (e.g. a numeric
// field growing a digit).
func SizeFor(codec Codec, sample any) (uint32, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	encoded, err := codec.Marshal(sample)
	if err != nil {
		return 0, newError("SizeFor", CodeSerializationFailed, err.Error(), err)
	}

	needed := uint32(len(encoded)) + constants.SlotLengthPrefixSize
	if needed < constants.MinSlotSize {
		needed = constants.MinSlotSize
	}

	unit := uint32(constants.DefaultSlotSize)
	rounded := ((needed + unit - 1) / unit) * unit
	return rounded, nil
}

package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// StateDigest hashes everything that influences future ticks. Two worlds fed
// the same level, commands and timestamps produce the same digest.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, w.tick)
	digestWriteU64(h, &tmp, uint64(w.nextID))
	for _, t := range w.things {
		b := t.Base()
		if b.removed {
			continue
		}
		digestWriteU64(h, &tmp, uint64(b.id))
		h.Write([]byte(b.kind))
		h.Write([]byte{byte(b.cat), boolByte(b.Static)})
		digestWriteVec(h, &tmp, b.Pos)
		digestWriteVec(h, &tmp, b.Vel)
		switch v := t.(type) {
		case *MysteryBlock:
			h.Write([]byte{boolByte(v.active)})
		case *Switch:
			h.Write([]byte{boolByte(v.active)})
		case tempoFlipper:
			digestWriteF64(h, &tmp, v.tempo())
		}
	}
	if p := w.player; p != nil {
		digestWriteI64(h, &tmp, int64(p.health))
		digestWriteI64(h, &tmp, int64(p.score))
		h.Write([]byte{
			boolByte(p.jumping),
			boolByte(p.onTunnel),
			boolByte(p.onFlag),
			boolByte(p.shouldTransition),
			boolByte(p.invincible.active),
			boolByte(p.switchLock.active),
		})
		h.Write([]byte(p.pendingNextLevel))
		for _, pos := range p.pendingBricks {
			digestWriteVec(h, &tmp, pos)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hash.Hash, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteVec(h hash.Hash, tmp *[8]byte, v Vec2) {
	digestWriteF64(h, tmp, v.X)
	digestWriteF64(h, tmp, v.Y)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

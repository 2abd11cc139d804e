package arena

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Snapshot format:
//
//	[Magic: 4 bytes] [Version: 1 byte]
//	zstd frame of: [NextRef: 8] [Count: 8] then per ref [Ref: 8] [Len: 4] [Data]
const (
	snapshotMagic   = 0x434c4241 // "CLBA"
	snapshotVersion = 1
)

// ErrBadSnapshot is returned by RestoreArena on malformed input.
var ErrBadSnapshot = errors.New("arena: bad snapshot")

// Snapshot writes the full arena state to w, zstd-compressed. It is the
// durability hook of the bundled allocator; the storage core itself never
// calls it.
func (a *HeapArena) Snapshot(w io.Writer) error {
	var hdr [5]byte
	binary.LittleEndian.PutUint32(hdr[0:], snapshotMagic)
	hdr[4] = snapshotVersion
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(zw)
	var scratch [12]byte
	binary.LittleEndian.PutUint64(scratch[0:], uint64(a.nextRef))
	if _, err := bw.Write(scratch[:8]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(scratch[0:], uint64(len(a.buffers)))
	if _, err := bw.Write(scratch[:8]); err != nil {
		return err
	}
	for ref, buf := range a.buffers {
		binary.LittleEndian.PutUint64(scratch[0:], uint64(ref))
		binary.LittleEndian.PutUint32(scratch[8:], uint32(len(buf)))
		if _, err := bw.Write(scratch[:]); err != nil {
			return err
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// RestoreArena reads a snapshot written by Snapshot and rebuilds the arena.
func RestoreArena(r io.Reader) (*HeapArena, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != snapshotMagic {
		return nil, fmt.Errorf("%w: magic mismatch", ErrBadSnapshot)
	}
	if hdr[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, hdr[4])
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	var scratch [12]byte
	if _, err := io.ReadFull(br, scratch[:8]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	nextRef := Ref(binary.LittleEndian.Uint64(scratch[0:]))
	if _, err := io.ReadFull(br, scratch[:8]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	count := binary.LittleEndian.Uint64(scratch[0:])

	a := NewHeapArena()
	a.nextRef = nextRef
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, scratch[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
		}
		ref := Ref(binary.LittleEndian.Uint64(scratch[0:]))
		size := binary.LittleEndian.Uint32(scratch[8:])
		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
		}
		a.buffers[ref] = buf
		a.stats.BytesReserved += uint64(size)
		a.stats.LiveRefs++
		a.stats.TotalAllocs++
	}
	return a, nil
}

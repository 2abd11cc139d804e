package array

import "fmt"

// Bytes arrays store each string in a fixed-size slot. The final slot byte
// records stride-1-len, so no side array is needed to recover lengths. The
// stride is the smallest power of two that fits the longest stored string
// plus that trailing byte; it only ever grows.

// strideNeeded returns the slot stride required for a string of length n.
func strideNeeded(n int) int {
	s := 2
	for s < n+1 {
		s *= 2
	}
	return s
}

// slotGet reads string i from a Bytes payload with the given stride.
func slotGet(p []byte, stride, i int) string {
	if stride == 0 {
		return ""
	}
	slot := p[i*stride : (i+1)*stride]
	n := stride - 1 - int(slot[stride-1])
	return string(slot[:n])
}

// slotSet writes string s into slot i. The caller guarantees len(s) < stride.
func slotSet(p []byte, stride, i int, s string) {
	if stride == 0 {
		// Width-0 payloads hold only empty strings; nothing to write.
		return
	}
	slot := p[i*stride : (i+1)*stride]
	copy(slot, s)
	for j := len(s); j < stride-1; j++ {
		slot[j] = 0
	}
	slot[stride-1] = byte(stride - 1 - len(s))
}

// ensureSlots widens the stride and/or grows the buffer so that n strings of
// length up to strLen fit.
func (a *Array) ensureSlots(n, strLen int) error {
	w := a.width
	if strLen > 0 && strideNeeded(strLen) > w {
		w = strideNeeded(strLen)
	}
	if w == a.width && (w == 0 || n <= a.capElems()) {
		return nil
	}
	capElems := n * 2
	if capElems < 8 {
		capElems = 8
	}
	return a.relocate(w, capElems)
}

// GetString returns string i of a Bytes array. Contract: i < Size().
func (a *Array) GetString(i int) string {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	return slotGet(a.payload(), a.width, i)
}

// SetString overwrites string i, widening the stride if needed.
func (a *Array) SetString(i int, s string) error {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	if err := a.ensureSlots(a.size, len(s)); err != nil {
		return err
	}
	slotSet(a.payload(), a.width, i, s)
	return nil
}

// InsertString makes room at i and stores s there. Contract: i <= Size().
func (a *Array) InsertString(i int, s string) error {
	if i > a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	if err := a.ensureSlots(a.size+1, len(s)); err != nil {
		return err
	}
	if a.width > 0 {
		p := a.payload()
		copy(p[(i+1)*a.width:(a.size+1)*a.width], p[i*a.width:a.size*a.width])
		slotSet(p, a.width, i, s)
	}
	a.size++
	a.writeHeader()
	return nil
}

// AddString appends s.
func (a *Array) AddString(s string) error { return a.InsertString(a.size, s) }

// DeleteString removes string i, shifting the tail left.
func (a *Array) DeleteString(i int) {
	if i >= a.size {
		panic(fmt.Sprintf("array: index %d out of range (size %d)", i, a.size))
	}
	if a.width > 0 {
		p := a.payload()
		copy(p[i*a.width:], p[(i+1)*a.width:a.size*a.width])
	}
	a.size--
	a.writeHeader()
}

// Blob arrays hold one raw byte payload; Size() is the used byte count.

// ensureBlob grows the buffer to hold at least n bytes.
func (a *Array) ensureBlob(n int) error {
	if n <= len(a.payload()) {
		return nil
	}
	capBytes := n * 2
	return a.relocate(0, capBytes)
}

// ViewBytes returns the payload range [begin, end) without copying. The
// slice is only valid until the next structural mutation of this Array.
func (a *Array) ViewBytes(begin, end int) []byte {
	if begin > end || end > a.size {
		panic(fmt.Sprintf("array: bad byte range [%d, %d) (size %d)", begin, end, a.size))
	}
	return a.payload()[begin:end]
}

// InsertBytes splices data into the payload at pos.
func (a *Array) InsertBytes(pos int, data []byte) error {
	if pos > a.size {
		panic(fmt.Sprintf("array: byte offset %d out of range (size %d)", pos, a.size))
	}
	if err := a.ensureBlob(a.size + len(data)); err != nil {
		return err
	}
	p := a.payload()
	copy(p[pos+len(data):a.size+len(data)], p[pos:a.size])
	copy(p[pos:], data)
	a.size += len(data)
	a.writeHeader()
	return nil
}

// AppendBytes appends data to the payload.
func (a *Array) AppendBytes(data []byte) error { return a.InsertBytes(a.size, data) }

// DeleteBytes removes the payload range [begin, end).
func (a *Array) DeleteBytes(begin, end int) {
	if begin > end || end > a.size {
		panic(fmt.Sprintf("array: bad byte range [%d, %d) (size %d)", begin, end, a.size))
	}
	p := a.payload()
	copy(p[begin:], p[end:a.size])
	a.size -= end - begin
	a.writeHeader()
}

// ReplaceBytes substitutes the payload range [begin, end) with data.
func (a *Array) ReplaceBytes(begin, end int, data []byte) error {
	if begin > end || end > a.size {
		panic(fmt.Sprintf("array: bad byte range [%d, %d) (size %d)", begin, end, a.size))
	}
	old := end - begin
	if len(data) > old {
		if err := a.ensureBlob(a.size + len(data) - old); err != nil {
			return err
		}
	}
	p := a.payload()
	copy(p[begin+len(data):a.size-old+len(data)], p[end:a.size])
	copy(p[begin:], data)
	a.size += len(data) - old
	a.writeHeader()
	return nil
}

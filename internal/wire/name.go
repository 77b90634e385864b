package wire

import "strings"

// ReadQName decodes a length-prefixed domain name starting at the cursor,
// following compression pointers as needed. The cursor ends up positioned
// just past the first occurrence of the name in the stream (either the
// terminating zero label, or the two bytes of the first pointer
// encountered), never past the jumped-to suffix.
func (b *Buffer) ReadQName() (string, error) {
	pos := b.pos
	jumped := false
	jumps := 0

	var labels []string

	for {
		if jumps > maxCompressionJumps {
			return "", ErrLimitsExceeded
		}

		length, err := b.Get(pos)
		if err != nil {
			return "", err
		}

		if length&0xC0 == 0xC0 {
			// Compression pointer: two bytes, top two bits set on the
			// first, 14-bit offset split across both.
			b2, err := b.Get(pos + 1)
			if err != nil {
				return "", err
			}

			if !jumped {
				if err := b.Seek(pos + 2); err != nil {
					return "", err
				}
			}

			offset := (int(length)^0xC0)<<8 | int(b2)
			pos = offset
			jumped = true
			jumps++
			continue
		}

		pos++

		if length == 0 {
			break
		}

		labelBytes, err := b.GetRange(pos, int(length))
		if err != nil {
			return "", err
		}
		labels = append(labels, strings.ToLower(string(labelBytes)))
		pos += int(length)

		if !jumped {
			if err := b.Seek(pos); err != nil {
				return "", err
			}
		}
	}

	if !jumped {
		if err := b.Seek(pos); err != nil {
			return "", err
		}
	}

	return strings.Join(labels, "."), nil
}

// WriteQName emits a domain name as length-prefixed labels terminated by a
// zero-length label. No compression is ever produced on write.
func (b *Buffer) WriteQName(name string) error {
	if name == "" {
		return b.WriteU8(0)
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" {
			continue
		}
		if len(label) > maxLabelLength {
			return ErrLabelTooLong
		}
		if err := b.WriteU8(byte(len(label))); err != nil {
			return err
		}
		for i := 0; i < len(label); i++ {
			if err := b.WriteU8(label[i]); err != nil {
				return err
			}
		}
	}

	return b.WriteU8(0)
}

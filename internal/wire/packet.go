package wire

// Packet is a full DNS message: header plus the four sections. Section
// counts in Header are authoritative only immediately after Parse; Write
// rewrites them from the current slice lengths.
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Resources   []Record
}

// NewPacket returns an empty packet with a zero header.
func NewPacket() *Packet {
	return &Packet{}
}

// Parse decodes a full DNS message out of buf. Buf is copied into a fresh
// 512-byte Buffer; at most Size bytes are examined.
func Parse(data []byte) (*Packet, error) {
	b := NewBufferFrom(data)
	p := &Packet{}

	if err := p.Header.read(b); err != nil {
		return nil, err
	}

	p.Questions = make([]Question, 0, p.Header.Questions)
	for i := uint16(0); i < p.Header.Questions; i++ {
		var q Question
		if err := q.read(b); err != nil {
			return nil, err
		}
		p.Questions = append(p.Questions, q)
	}

	var err error
	if p.Answers, err = readSection(b, p.Header.Answers); err != nil {
		return nil, err
	}
	if p.Authorities, err = readSection(b, p.Header.Authorities); err != nil {
		return nil, err
	}
	if p.Resources, err = readSection(b, p.Header.Additionals); err != nil {
		return nil, err
	}

	return p, nil
}

func readSection(b *Buffer, count uint16) ([]Record, error) {
	recs := make([]Record, 0, count)
	for i := uint16(0); i < count; i++ {
		r, err := readRecord(b)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Write serializes the packet into a fresh 512-byte buffer, rewriting the
// header's section counts from the current slice lengths first. Unknown
// records are silently dropped (see record.go), so the emitted Answers
// count can be lower than len(p.Answers) when it contains unknown RRs —
// callers that built a packet via Parse and want a faithful round trip
// should not mix in unknown records expecting them to survive.
func (p *Packet) Write() (*Buffer, error) {
	b := NewBuffer()

	p.Header.Questions = uint16(len(p.Questions))
	p.Header.Answers = uint16(countEmittable(p.Answers))
	p.Header.Authorities = uint16(countEmittable(p.Authorities))
	p.Header.Additionals = uint16(countEmittable(p.Resources))

	if err := p.Header.write(b); err != nil {
		return nil, err
	}

	for i := range p.Questions {
		if err := p.Questions[i].write(b); err != nil {
			return nil, err
		}
	}

	for _, sec := range [][]Record{p.Answers, p.Authorities, p.Resources} {
		for _, r := range sec {
			if err := writeRecord(b, r); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

func countEmittable(recs []Record) int {
	n := 0
	for _, r := range recs {
		if r.Kind != RecordUnknown {
			n++
		}
	}
	return n
}

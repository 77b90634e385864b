package wire

import (
	"fmt"
	"net"
)

const classIN uint16 = 1

// Question is a single entry of the question section: a name and the query
// type asked about. Class is assumed IN on write and ignored (beyond
// skipping its two bytes) on read.
type Question struct {
	Name  string
	QType QueryType
}

func (q *Question) read(b *Buffer) error {
	name, err := b.ReadQName()
	if err != nil {
		return err
	}
	q.Name = name

	code, err := b.ReadU16()
	if err != nil {
		return err
	}
	q.QType = NewQueryType(code)

	if _, err := b.ReadU16(); err != nil { // class, discarded
		return err
	}
	return nil
}

func (q *Question) write(b *Buffer) error {
	if err := b.WriteQName(q.Name); err != nil {
		return err
	}
	if err := b.WriteU16(q.QType.Code()); err != nil {
		return err
	}
	return b.WriteU16(classIN)
}

// RecordKind discriminates the Record union.
type RecordKind uint8

const (
	RecordUnknown RecordKind = iota
	RecordA
	RecordAAAA
	RecordNS
	RecordCNAME
	RecordMX
)

// Record is a tagged union over the resource record shapes this proxy
// parses and emits. Only the fields relevant to Kind are meaningful.
type Record struct {
	Kind   RecordKind
	Domain string
	TTL    uint32

	Addr     net.IP // A, AAAA
	Host     string // NS, CNAME, MX
	Priority uint16 // MX

	UnknownQType   uint16 // RecordUnknown
	UnknownDataLen uint16 // RecordUnknown
}

// NewARecord builds a synthesized A answer with the fixed 3600s TTL used
// for local host-table hits.
func NewARecord(domain string, addr net.IP) Record {
	return Record{Kind: RecordA, Domain: domain, Addr: addr.To4(), TTL: 3600}
}

// NewAAAARecord builds a synthesized AAAA answer with the fixed 3600s TTL
// used for local host-table hits.
func NewAAAARecord(domain string, addr net.IP) Record {
	return Record{Kind: RecordAAAA, Domain: domain, Addr: addr.To16(), TTL: 3600}
}

func readRecord(b *Buffer) (Record, error) {
	var r Record

	domain, err := b.ReadQName()
	if err != nil {
		return r, err
	}
	r.Domain = domain

	qtypeCode, err := b.ReadU16()
	if err != nil {
		return r, err
	}
	if _, err := b.ReadU16(); err != nil { // class, discarded
		return r, err
	}
	ttl, err := b.ReadU32()
	if err != nil {
		return r, err
	}
	r.TTL = ttl

	dataLen, err := b.ReadU16()
	if err != nil {
		return r, err
	}

	switch NewQueryType(qtypeCode).Kind() {
	case KindA:
		raw, err := b.GetRange(b.Pos(), 4)
		if err != nil {
			return r, err
		}
		if err := b.Step(4); err != nil {
			return r, err
		}
		r.Kind = RecordA
		r.Addr = net.IPv4(raw[0], raw[1], raw[2], raw[3])

	case KindAAAA:
		raw, err := b.GetRange(b.Pos(), 16)
		if err != nil {
			return r, err
		}
		if err := b.Step(16); err != nil {
			return r, err
		}
		r.Kind = RecordAAAA
		r.Addr = net.IP(raw)

	case KindNS:
		host, err := b.ReadQName()
		if err != nil {
			return r, err
		}
		r.Kind = RecordNS
		r.Host = host

	case KindCNAME:
		host, err := b.ReadQName()
		if err != nil {
			return r, err
		}
		r.Kind = RecordCNAME
		r.Host = host

	case KindMX:
		priority, err := b.ReadU16()
		if err != nil {
			return r, err
		}
		host, err := b.ReadQName()
		if err != nil {
			return r, err
		}
		r.Kind = RecordMX
		r.Priority = priority
		r.Host = host

	default:
		if err := b.Step(int(dataLen)); err != nil {
			return r, err
		}
		r.Kind = RecordUnknown
		r.UnknownQType = qtypeCode
		r.UnknownDataLen = dataLen
	}

	return r, nil
}

// writeRecord emits the record. Unknown records are a documented no-op: they are
// silently dropped rather than re-serialized.
func writeRecord(b *Buffer, r Record) error {
	switch r.Kind {
	case RecordA:
		if err := b.WriteQName(r.Domain); err != nil {
			return err
		}
		if err := b.WriteU16(codeA); err != nil {
			return err
		}
		if err := b.WriteU16(classIN); err != nil {
			return err
		}
		if err := b.WriteU32(r.TTL); err != nil {
			return err
		}
		if err := b.WriteU16(4); err != nil {
			return err
		}
		ip4 := r.Addr.To4()
		if ip4 == nil {
			return fmt.Errorf("wire: A record address %v is not IPv4", r.Addr)
		}
		for _, octet := range ip4 {
			if err := b.WriteU8(octet); err != nil {
				return err
			}
		}

	case RecordAAAA:
		if err := b.WriteQName(r.Domain); err != nil {
			return err
		}
		if err := b.WriteU16(codeAAAA); err != nil {
			return err
		}
		if err := b.WriteU16(classIN); err != nil {
			return err
		}
		if err := b.WriteU32(r.TTL); err != nil {
			return err
		}
		if err := b.WriteU16(16); err != nil {
			return err
		}
		ip16 := r.Addr.To16()
		if ip16 == nil {
			return fmt.Errorf("wire: AAAA record address %v is not IPv6", r.Addr)
		}
		for _, octet := range ip16 {
			if err := b.WriteU8(octet); err != nil {
				return err
			}
		}

	case RecordNS:
		return writeNameRecord(b, r.Domain, codeNS, r.TTL, r.Host)

	case RecordCNAME:
		return writeNameRecord(b, r.Domain, codeCNAME, r.TTL, r.Host)

	case RecordMX:
		if err := b.WriteQName(r.Domain); err != nil {
			return err
		}
		if err := b.WriteU16(codeMX); err != nil {
			return err
		}
		if err := b.WriteU16(classIN); err != nil {
			return err
		}
		if err := b.WriteU32(r.TTL); err != nil {
			return err
		}

		lenPos := b.Pos()
		if err := b.WriteU16(0); err != nil {
			return err
		}
		start := b.Pos()
		if err := b.WriteU16(r.Priority); err != nil {
			return err
		}
		if err := b.WriteQName(r.Host); err != nil {
			return err
		}
		return b.SetU16(lenPos, uint16(b.Pos()-start))

	case RecordUnknown:
		// A documented no-op: unknown records are never re-emitted.
		return nil
	}

	return nil
}

func writeNameRecord(b *Buffer, domain string, qtype uint16, ttl uint32, host string) error {
	if err := b.WriteQName(domain); err != nil {
		return err
	}
	if err := b.WriteU16(qtype); err != nil {
		return err
	}
	if err := b.WriteU16(classIN); err != nil {
		return err
	}
	if err := b.WriteU32(ttl); err != nil {
		return err
	}

	lenPos := b.Pos()
	if err := b.WriteU16(0); err != nil {
		return err
	}
	start := b.Pos()
	if err := b.WriteQName(host); err != nil {
		return err
	}
	return b.SetU16(lenPos, uint16(b.Pos()-start))
}

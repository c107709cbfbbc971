package listener

import (
	"fmt"
	"strings"

	"github.com/debashish-mukherjee/go-snmpsim/internal/pipeline"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
	"github.com/gosnmp/gosnmp"
)

// decode turns a raw BER datagram into a pipeline.Message using
// gosnmp's own decoder; the pipeline never touches ASN.1 directly.
func decode(datagram []byte) (pipeline.Message, error) {
	g := &gosnmp.GoSNMP{}
	pkt, err := g.SnmpDecodePacket(datagram)
	if err != nil {
		return pipeline.Message{}, fmt.Errorf("listener: decode: %w", err)
	}

	version := pipeline.V2c
	if pkt.Version == gosnmp.Version1 {
		version = pipeline.V1
	}

	kind, err := fromWirePDUType(pkt.PDUType)
	if err != nil {
		return pipeline.Message{}, err
	}

	varbinds := make([]snmpval.Varbind, len(pkt.Variables))
	for i, v := range pkt.Variables {
		varbinds[i] = snmpval.Varbind{OID: strings.TrimPrefix(v.Name, "."), Value: snmpval.FromPDU(v)}
	}

	return pipeline.Message{
		Version:   version,
		Community: pkt.Community,
		PDU: pipeline.PDU{
			Kind:           kind,
			RequestID:      int32(pkt.RequestID),
			NonRepeaters:   int(pkt.NonRepeaters),
			MaxRepetitions: int(pkt.MaxRepetitions),
			Varbinds:       varbinds,
		},
	}, nil
}

// encode turns a pipeline response Message into a BER datagram.
func encode(msg pipeline.Message) ([]byte, error) {
	version := gosnmp.Version2c
	if msg.Version == pipeline.V1 {
		version = gosnmp.Version1
	}

	vars := make([]gosnmp.SnmpPDU, len(msg.PDU.Varbinds))
	for i, vb := range msg.PDU.Varbinds {
		vars[i] = gosnmp.SnmpPDU{
			Name:  vb.OID,
			Type:  vb.Value.Asn1BER(),
			Value: vb.Value.WireValue(),
		}
	}

	pkt := &gosnmp.SnmpPacket{
		Version:      version,
		Community:    msg.Community,
		PDUType:      gosnmp.GetResponse,
		RequestID:    uint32(msg.PDU.RequestID),
		Error:        gosnmp.SNMPError(msg.PDU.ErrorStatus),
		ErrorIndex:   uint8(msg.PDU.ErrorIndex),
		Variables:    vars,
	}
	return pkt.MarshalMsg()
}

func fromWirePDUType(t gosnmp.PDUType) (pipeline.PDUKind, error) {
	switch t {
	case gosnmp.GetRequest:
		return pipeline.GetRequest, nil
	case gosnmp.GetNextRequest:
		return pipeline.GetNextRequest, nil
	case gosnmp.GetBulkRequest:
		return pipeline.GetBulkRequest, nil
	default:
		return 0, fmt.Errorf("listener: unsupported PDU type %v", t)
	}
}

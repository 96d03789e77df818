package output

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
)

// Fields flattens a packet into values every output can carry.  Numbers are
// ints so the map can be handed to structpb as is.
func Fields(pkt op25.OSWPacket) (map[string]interface{}, error) {
	msg, ok := pkt.Packet.(*p25.Message)
	if !ok {
		return nil, fmt.Errorf("unsupported packet %T", pkt.Packet)
	}

	ret := map[string]interface{}{
		"channel":        pkt.SystemID,
		"timestamp":      pkt.Timestamp.UTC().Format(time.RFC3339Nano),
		"frame_type":     msg.FrameType.String(),
		"nac":            int(msg.NAC),
		"valid":          msg.Valid,
		"corrected_bits": msg.CorrectedBits,
		"block":          msg.Block,
	}
	for k, v := range payloadFields(msg.Payload) {
		ret[k] = v
	}
	return ret, nil
}

func payloadFields(payload p25.Payload) map[string]interface{} {
	switch p := payload.(type) {
	case p25.TSBK:
		ret := map[string]interface{}{
			"opcode":      int(p.Opcode),
			"opcode_name": p25.OpcodeName(p.Opcode),
			"mfid":        int(p.MFID),
			"last_block":  p.LastBlock,
			"protected":   p.Protected,
			"args":        hex.EncodeToString(p.Args[:]),
		}
		if grant, ok := p25.ParseGroupGrant(p); ok {
			ret["tgid"] = int(grant.Group)
			ret["source_id"] = int(grant.Source)
			ret["voice_channel"] = int(grant.Channel)
			ret["service_options"] = int(grant.ServiceOptions)
		}
		return ret

	case p25.PDUHeader:
		return map[string]interface{}{
			"confirmed":        p.Confirmed,
			"outbound":         p.Outbound,
			"format":           int(p.Format),
			"sap":              int(p.SAP),
			"mfid":             int(p.MFID),
			"llid":             int(p.LLID),
			"blocks_to_follow": p.BlocksToFollow,
			"pad_octets":       p.PadOctets,
		}

	case p25.DataBlock:
		ret := map[string]interface{}{
			"confirmed": p.Confirmed,
			"data":      hex.EncodeToString(p.Data),
		}
		if p.Confirmed {
			ret["serial"] = int(p.Serial)
		}
		return ret

	case p25.Raw:
		return map[string]interface{}{
			"data": hex.EncodeToString(p.Data),
		}
	}
	return nil
}

// formatLine renders a packet as a single line of key=value pairs.
func formatLine(pkt op25.OSWPacket) (string, error) {
	msg, ok := pkt.Packet.(*p25.Message)
	if !ok {
		return "", fmt.Errorf("unsupported packet %T", pkt.Packet)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s channel=%d %s", pkt.Timestamp.UTC().Format(time.RFC3339Nano), pkt.SystemID, msg)

	extra := payloadFields(msg.Payload)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		// voice payloads are not worth printing
		if k == "data" && msg.FrameType.IsVoice() {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, extra[k])
	}
	b.WriteByte('\n')
	return b.String(), nil
}

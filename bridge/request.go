package bridge

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Probe is one measurement point extracted from a request.
type Probe struct {
	Node string
	Type float64
	Low  float64
	High float64
}

// netlistFrom returns the request's netlist when it is non-blank text,
// else the fallback.
func netlistFrom(payload []byte) string {
	v := gjson.GetBytes(payload, "netlist")
	if v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
		return v.String()
	}
	return FallbackNetlist
}

// probesFrom extracts the request's probe list. Anything that is not a
// proper array yields no probes; non-object entries and entries without
// a node identifier are skipped rather than failing the run. Node
// identifiers coerce to text, the numeric fields coerce to numbers and
// default to 1 when absent.
func probesFrom(payload []byte) []Probe {
	list := gjson.GetBytes(payload, "probeNodes")
	if !list.IsArray() {
		return nil
	}

	var probes []Probe
	list.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			return true
		}
		node := entry.Get("ProbeNode")
		if !node.Exists() || node.Type == gjson.Null {
			return true
		}
		probes = append(probes, Probe{
			Node: node.String(),
			Type: numberOr1(entry.Get("ProbeType")),
			Low:  numberOr1(entry.Get("LowLevel")),
			High: numberOr1(entry.Get("HighLevel")),
		})
		return true
	})
	return probes
}

func numberOr1(v gjson.Result) float64 {
	if !v.Exists() || v.Type == gjson.Null {
		return 1
	}
	return v.Float()
}

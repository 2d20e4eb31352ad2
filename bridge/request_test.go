package bridge

import (
	"testing"
)

func TestProbesFrom(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Probe
	}{
		{
			name:    "absent list",
			payload: `{}`,
			want:    nil,
		},
		{
			name:    "not an array",
			payload: `{"probeNodes":"v(1)"}`,
			want:    nil,
		},
		{
			name:    "defaults applied",
			payload: `{"probeNodes":[{"ProbeNode":"out"}]}`,
			want:    []Probe{{Node: "out", Type: 1, Low: 1, High: 1}},
		},
		{
			name:    "explicit fields",
			payload: `{"probeNodes":[{"ProbeNode":"out","ProbeType":2,"LowLevel":0.2,"HighLevel":3.3}]}`,
			want:    []Probe{{Node: "out", Type: 2, Low: 0.2, High: 3.3}},
		},
		{
			name:    "numeric identifier coerced to text",
			payload: `{"probeNodes":[{"ProbeNode":7}]}`,
			want:    []Probe{{Node: "7", Type: 1, Low: 1, High: 1}},
		},
		{
			name:    "non-object entries skipped",
			payload: `{"probeNodes":["v(1)",42,null,{"ProbeNode":"a"}]}`,
			want:    []Probe{{Node: "a", Type: 1, Low: 1, High: 1}},
		},
		{
			name:    "missing identifier skipped",
			payload: `{"probeNodes":[{"ProbeType":3},{"ProbeNode":null},{"ProbeNode":"b"}]}`,
			want:    []Probe{{Node: "b", Type: 1, Low: 1, High: 1}},
		},
		{
			name:    "null numeric fields default to 1",
			payload: `{"probeNodes":[{"ProbeNode":"c","ProbeType":null,"LowLevel":null}]}`,
			want:    []Probe{{Node: "c", Type: 1, Low: 1, High: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := probesFrom([]byte(tt.payload))
			if len(got) != len(tt.want) {
				t.Fatalf("probes = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("probe %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNetlistFrom(t *testing.T) {
	if got := netlistFrom([]byte(`{"netlist":"R1 1 0 1k\n.end"}`)); got != "R1 1 0 1k\n.end" {
		t.Errorf("netlist = %q, want pass-through", got)
	}
	if got := netlistFrom([]byte(`{}`)); got != FallbackNetlist {
		t.Errorf("netlist = %q, want fallback", got)
	}
	if got := netlistFrom(nil); got != FallbackNetlist {
		t.Errorf("nil payload: netlist = %q, want fallback", got)
	}
}

package core

import (
	"math/rand"
	"testing"

	"github.com/signalsfoundry/mirrornet-simulator/history"
	"github.com/signalsfoundry/mirrornet-simulator/model"
)

func TestActiveLinksProbeRecordsRatio(t *testing.T) {
	n := newTestNetwork(t, TopologyRing, 4, 1)
	probe := NewActiveLinksProbe(n, nil)

	probe.Observe(0)
	if _, v, ok := n.History().Latest(history.SeriesActiveLinks); !ok || v != 0 {
		t.Errorf("ratio before activation = %v, want 0", v)
	}

	n.Tick(1)
	probe.Observe(1)
	if _, v, ok := n.History().Latest(history.SeriesActiveLinks); !ok || v != 100 {
		t.Errorf("ratio after activation = %v, want 100", v)
	}
}

func TestBandwidthProbeRelativeToTarget(t *testing.T) {
	n := newTestNetwork(t, TopologyLine, 3, 1)
	probe, err := NewBandwidthProbe(n, nil)
	if err != nil {
		t.Fatalf("NewBandwidthProbe: %v", err)
	}

	n.Tick(1)
	probe.Observe(1)
	if _, v, ok := n.History().Latest(history.SeriesBandwidth); !ok || v != 100 {
		t.Errorf("relative bandwidth = %v, want 100", v)
	}
}

func TestBandwidthProbeRequiresProp(t *testing.T) {
	props := zeroDelayProps()
	delete(props, model.PropMaxBandwidth)
	n, err := NewNetwork(NetworkConfig{
		Rand:     rand.New(rand.NewSource(1)),
		Props:    props,
		Topology: TopologyRing,
		Mirrors:  3,
	})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if _, err := NewBandwidthProbe(n, nil); err == nil {
		t.Fatal("NewBandwidthProbe accepted a network without a bandwidth ceiling")
	}
}

func TestTimeToWriteProbeByTopology(t *testing.T) {
	mesh := newTestNetwork(t, TopologyFullyConnected, 4, 1)
	mesh.Tick(1)
	NewTimeToWriteProbe(mesh, nil).Observe(1)
	if _, v, ok := mesh.History().Latest(history.SeriesTimeToWrite); !ok || v != 100 {
		t.Errorf("mesh ttw = %v, want 100", v)
	}

	tree := newTestNetwork(t, TopologyTree, 7, 2)
	tree.Tick(1)
	NewTimeToWriteProbe(tree, nil).Observe(1)
	if _, v, ok := tree.History().Latest(history.SeriesTimeToWrite); !ok || v != 50 {
		t.Errorf("tree ttw = %v, want 50", v)
	}

	ring := newTestNetwork(t, TopologyRing, 4, 1)
	ring.Tick(1)
	NewTimeToWriteProbe(ring, nil).Observe(1)
	if _, v, ok := ring.History().Latest(history.SeriesTimeToWrite); !ok || v != 0 {
		t.Errorf("ring ttw = %v, want 0 (unmodeled topology)", v)
	}
}

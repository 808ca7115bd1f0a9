// Package testing provides shared test fixtures: a mock ECU on an httptest
// server and catalog files.
package testing

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/simulator"
)

// SampleEntries is a small catalog touching every widget class.
var SampleEntries = []catalog.Entry{
	{Name: "RPMValue", Hash: catalog.RPMValue, Source: catalog.SourceOutput},
	{Name: "TPSValue", Hash: catalog.TPSValue, Source: catalog.SourceOutput},
	{Name: "AFRValue", Hash: catalog.AFRValue, Source: catalog.SourceOutput},
	{Name: "CLTValue", Hash: catalog.CLTValue, Source: catalog.SourceOutput},
	{Name: "IATValue", Hash: catalog.IATValue, Source: catalog.SourceOutput},
	{Name: "MAPValue", Hash: catalog.MAPValue, Source: catalog.SourceOutput},
	{Name: "OilPressValue", Hash: catalog.OilPressValue, Source: catalog.SourceOutput},
	{Name: "VBatt", Hash: -12345, Source: catalog.SourceOutput},
	{Name: "idleRpmTarget", Hash: 777, Source: "config"},
}

// WriteCatalog writes entries as a /variables.json file under t.TempDir
// and returns its path.
func WriteCatalog(t *testing.T, entries []catalog.Entry) string {
	t.Helper()

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("Failed to marshal catalog: %v", err)
	}
	path := filepath.Join(t.TempDir(), "variables.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	return path
}

// StartECU serves a simulator with entries as its catalog. Cleanup is
// registered via t.Cleanup().
func StartECU(t *testing.T, entries []catalog.Entry) (*httptest.Server, *simulator.Simulator) {
	t.Helper()

	var file string
	if entries != nil {
		file = WriteCatalog(t, entries)
	}
	sim := simulator.New(simulator.Options{VariablesFile: file})
	srv := httptest.NewServer(sim.Router())
	t.Cleanup(srv.Close)
	return srv, sim
}

// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "testing"

func TestBackendStrings(t *testing.T) {
	want := map[Backend]string{
		BackendAoS:       "aos",
		BackendSoAScalar: "soa-scalar",
		BackendSoAPack4:  "soa-pack4",
		BackendSoAPack8:  "soa-pack8",
		BackendSoAFMA:    "soa-fma",
	}

	for backend, name := range want {
		if backend.String() != name {
			t.Errorf("%d.String() = %q, want %q", backend, backend.String(), name)
		}
	}
}

func TestScalarBackendsAlwaysAvailable(t *testing.T) {
	if !BackendAoS.Available() {
		t.Error("aos backend must always be available")
	}
	if !BackendSoAScalar.Available() {
		t.Error("soa-scalar backend must always be available")
	}
}

func TestBestIsAvailable(t *testing.T) {
	if best := Best(); !best.Available() {
		t.Errorf("Best() = %v, which reports unavailable", best)
	}
}

func TestBackendsListsAll(t *testing.T) {
	if got := len(Backends()); got != int(numBackends) {
		t.Errorf("Backends() has %d entries, want %d", got, int(numBackends))
	}
}

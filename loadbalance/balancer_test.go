package loadbalance

import (
	"errors"
	"fmt"
	"testing"

	"zabbix-rpc/registry"
)

var testEndpoints = []registry.Endpoint{
	{Host: "http://fe1/", Weight: 10, Version: "6.0"},
	{Host: "http://fe2/", Weight: 5, Version: "6.0"},
	{Host: "http://fe3/", Weight: 10, Version: "6.0"},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinBalancer{}

	// Pick 3 times, should cycle through all endpoints
	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		ep, err := b.Pick(testEndpoints, "")
		if err != nil {
			t.Fatal(err)
		}
		results[i] = ep.Host
	}
	if results[0] == results[1] || results[1] == results[2] || results[0] == results[2] {
		t.Fatalf("expect 3 distinct endpoints, got %v", results)
	}

	// Pick again, should wrap around to first
	ep, _ := b.Pick(testEndpoints, "")
	if ep.Host != results[0] {
		t.Fatalf("expect wrap around to %s, got %s", results[0], ep.Host)
	}
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinBalancer{}
	_, err := b.Pick([]registry.Endpoint{}, "")
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expect ErrNoEndpoints, got %v", err)
	}
}

func TestWeightedRandom(t *testing.T) {
	b := &WeightedRandomBalancer{}

	counts := map[string]int{}
	n := 10000
	for i := 0; i < n; i++ {
		ep, err := b.Pick(testEndpoints, "")
		if err != nil {
			t.Fatal(err)
		}
		counts[ep.Host]++
	}

	// Weight ratio is 10:5:10, so fe1 and fe3 should be ~2x of fe2
	ratio := float64(counts["http://fe1/"]) / float64(counts["http://fe2/"])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio fe1/fe2 = %.2f, expect ~2.0", ratio)
	}
}

func TestWeightedRandomZeroWeights(t *testing.T) {
	b := &WeightedRandomBalancer{}
	endpoints := []registry.Endpoint{{Host: "http://a/"}, {Host: "http://b/"}}

	for i := 0; i < 100; i++ {
		if _, err := b.Pick(endpoints, ""); err != nil {
			t.Fatalf("zero weights must still be pickable: %v", err)
		}
	}
}

func TestConsistentHash(t *testing.T) {
	b := NewConsistentHashBalancer()
	for i := range testEndpoints {
		b.Add(&testEndpoints[i])
	}

	// Same key should always map to the same endpoint
	ep1, _ := b.Locate("Admin")
	ep2, _ := b.Locate("Admin")
	if ep1.Host != ep2.Host {
		t.Fatalf("same key mapped to different endpoints: %s vs %s", ep1.Host, ep2.Host)
	}

	// Different keys should (likely) map to different endpoints
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ep, _ := b.Locate(fmt.Sprintf("user-%d", i))
		seen[ep.Host] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expect at least 2 different endpoints, got %d", len(seen))
	}
}

func TestConsistentHashPickAffinity(t *testing.T) {
	b := NewConsistentHashBalancer()

	first, err := b.Pick(testEndpoints, "Admin")
	if err != nil {
		t.Fatal(err)
	}

	// Same set in a different order must not move the user
	reordered := []registry.Endpoint{testEndpoints[2], testEndpoints[0], testEndpoints[1]}
	again, err := b.Pick(reordered, "Admin")
	if err != nil {
		t.Fatal(err)
	}
	if first.Host != again.Host {
		t.Fatalf("expect %s, got %s", first.Host, again.Host)
	}

	// Removing an unrelated endpoint keeps the mapping when the user's endpoint survives
	var remaining []registry.Endpoint
	for _, ep := range testEndpoints {
		if ep.Host == first.Host {
			remaining = append(remaining, ep)
		}
	}
	only, err := b.Pick(remaining, "Admin")
	if err != nil {
		t.Fatal(err)
	}
	if only.Host != first.Host {
		t.Fatalf("expect %s, got %s", first.Host, only.Host)
	}
}

func TestConsistentHashEmpty(t *testing.T) {
	b := NewConsistentHashBalancer()
	if _, err := b.Locate("Admin"); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expect ErrNoEndpoints, got %v", err)
	}
	if _, err := b.Pick(nil, "Admin"); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expect ErrNoEndpoints, got %v", err)
	}
}

func TestNew(t *testing.T) {
	for name, want := range map[string]string{
		"":                "RoundRobin",
		"round_robin":     "RoundRobin",
		"weighted_random": "WeightedRandom",
		"consistent_hash": "ConsistentHash",
	} {
		b, err := New(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if b.Name() != want {
			t.Errorf("%q: expect %s, got %s", name, want, b.Name())
		}
	}

	if _, err := New("random"); err == nil {
		t.Fatal("expect error for unknown balancer")
	}
}

package models

import (
	"testing"
	"time"
)

func TestPriceTableQuote(t *testing.T) {
	table := PriceTable{"usd": 67000, "eur": 0, "jpy": -1}

	if v, ok := table.Quote("USD"); !ok || v != 67000 {
		t.Errorf("Quote(USD) = %v, %v", v, ok)
	}
	if _, ok := table.Quote("eur"); ok {
		t.Error("zero price must read as absent")
	}
	if _, ok := table.Quote("jpy"); ok {
		t.Error("negative price must read as absent")
	}
	if _, ok := table.Quote("gbp"); ok {
		t.Error("missing code must read as absent")
	}
}

func TestDomainValid(t *testing.T) {
	if !DomainPrice.Valid() || !DomainGdp.Valid() {
		t.Error("known domains must be valid")
	}
	if Domain("weather").Valid() {
		t.Error("unknown domain must be invalid")
	}
}

func TestSnapshotAge(t *testing.T) {
	now := time.Now()
	snap := &Snapshot{Timestamp: now.Add(-90 * time.Minute).UnixMilli()}
	age := snap.Age(now)
	if age < 89*time.Minute || age > 91*time.Minute {
		t.Errorf("Age = %v, want ~90m", age)
	}
}

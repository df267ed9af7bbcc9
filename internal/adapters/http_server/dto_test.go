package httpserver

import (
	"testing"

	"hotel_review/internal/domain"
)

func TestStatusVocabularyRoundTrip(t *testing.T) {
	for internal, client := range map[domain.Status]string{
		domain.StatusPublished:   "online",
		domain.StatusUnderReview: "pending",
		domain.StatusOffline:     "offline",
		domain.StatusDraft:       "draft",
		domain.StatusPaused:      "paused",
	} {
		if got := toClientStatus(internal); got != client {
			t.Fatalf("%s -> %s, want %s", internal, got, client)
		}
		back, ok := parseClientStatus(client)
		if !ok || back != internal {
			t.Fatalf("%s -> %s (%v), want %s", client, back, ok, internal)
		}
	}
	if s, ok := parseClientStatus("under_review"); !ok || s != domain.StatusUnderReview {
		t.Fatalf("internal names should parse too")
	}
	if _, ok := parseClientStatus("archived"); ok {
		t.Fatalf("unknown status must not parse")
	}
}

func TestHotelInput_DiscountInfoFallsBackToDescription(t *testing.T) {
	d := "10% off"
	p := hotelInput{DiscountInfo: &d}.patch()
	if p.Description == nil || *p.Description != d {
		t.Fatalf("discountInfo should map to description")
	}
	desc := "sea view"
	p = hotelInput{DiscountInfo: &d, Description: &desc}.patch()
	if *p.Description != desc {
		t.Fatalf("explicit description wins")
	}
}

func TestParseActor(t *testing.T) {
	if _, err := parseActor("not.a.token", "s"); err == nil {
		t.Fatalf("expected error")
	}
}

package domain

import "testing"

func TestStatusTerminal(t *testing.T) {
	if TicketStatusOpen.Terminal() {
		t.Fatalf("open must allow resolution")
	}
	if !TicketStatusResolved.Terminal() {
		t.Fatalf("resolved must be terminal")
	}
}

package board

import (
	"testing"
)

func TestParseSANDisambiguation(t *testing.T) {
	pos, err := ParseFEN("r2q3k/p2P3p/1p3p2/3QP1r1/8/B7/P5PP/2R3K1 w - -")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	m, err := ParseSAN("Qxa8", pos)
	if err != nil {
		t.Fatal("Error parsing SAN:", err)
	}

	t.Log("Parsed move:", m)

	if m.From() != D5 {
		t.Errorf("expected from d5, got %s", m.From())
	}
	if m.To() != A8 {
		t.Errorf("expected to a8, got %s", m.To())
	}
}

func TestMoveToSANFormatting(t *testing.T) {
	pos, err := ParseFEN("r2q3k/p2P3p/1p3p2/3QP1r1/8/B7/P5PP/2R3K1 w - -")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	m := NewMove(C1, C8)
	san := m.ToSAN(pos)

	t.Log("Formatted SAN:", san)

	if san != "Rc8" {
		t.Errorf("expected Rc8, got %s", san)
	}
}

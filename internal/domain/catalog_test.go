package domain

import (
	"errors"
	"testing"
)

func TestCatalog_Clone(t *testing.T) {
	cat := hybridCatalog(echamVCT, 3, ZAxisHybrid)
	out := cat.Clone()

	out.ZAxes[1].VCT[0] = 42
	out.ZAxes[1].Levels[0] = 42
	out.Vars[0].Name = "changed"
	if cat.ZAxes[1].VCT[0] == 42 || cat.ZAxes[1].Levels[0] == 42 || cat.Vars[0].Name == "changed" {
		t.Error("Clone must not share state with the original")
	}
}

func TestCatalog_GridSize(t *testing.T) {
	cat := hybridCatalog(echamVCT, 3, ZAxisHybrid)
	n, err := cat.GridSize()
	if err != nil || n != 4 {
		t.Fatalf("Expected 4 gridpoints, got %d (%v)", n, err)
	}

	cat.Grids = append(cat.Grids, Grid{ID: 1, Size: 8})
	cat.Vars[1].GridID = 1
	if _, err := cat.GridSize(); !errors.Is(err, ErrGridSizeMismatch) {
		t.Errorf("Expected ErrGridSizeMismatch, got %v", err)
	}

	cat.Vars[1].GridID = 7
	if _, err := cat.GridSize(); err == nil {
		t.Error("Expected error for unknown grid")
	}
}

func TestCatalog_AxisEditing(t *testing.T) {
	cat := hybridCatalog(echamVCT, 3, ZAxisHybrid)

	id := cat.AddZAxis(ZAxis{Type: ZAxisPressure, Levels: []float64{50000}})
	if id != 2 {
		t.Fatalf("Expected ID 2, got %d", id)
	}
	cat.ReplaceZAxis(1, id)
	if cat.Vars[1].ZAxisID != id || cat.VarLevels(1) != 1 {
		t.Errorf("Expected var 1 on axis %d with 1 level, got axis %d", id, cat.Vars[1].ZAxisID)
	}

	cat.RemoveVar(0)
	if _, ok := cat.Var(0); ok || len(cat.Vars) != 1 {
		t.Error("Expected var 0 to be removed")
	}
	if cat.VarLevels(99) != 0 {
		t.Error("Expected 0 levels for an unknown variable")
	}
}
